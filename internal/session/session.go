// Package session carries the authenticated caller through the request.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Caller is the identity an operation runs on behalf of.
type Caller struct {
	ID      uuid.UUID
	IsAdmin bool
}

// Owns reports whether the caller created a record owned by owner.
func (c Caller) Owns(owner uuid.UUID) bool {
	return c.ID != uuid.Nil && c.ID == owner
}

// OwnsOrAdmin reports whether the caller owns the record or is an admin.
func (c Caller) OwnsOrAdmin(owner uuid.UUID) bool {
	return c.IsAdmin || c.Owns(owner)
}

type ctxKey struct{}

// With returns a context carrying caller. Only the HTTP boundary uses it.
func With(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// From returns the caller stored in ctx.
func From(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
