package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("title is required")))
	assert.Equal(t, KindAuthorization, KindOf(Authorization("admins only")))
	assert.Equal(t, KindCapacity, KindOf(Capacity("event is full")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("event")))
	assert.Equal(t, KindBackend, KindOf(errors.New("connection reset")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("attend: %w", Capacity("event is full"))
	assert.True(t, IsCapacity(err))
	assert.False(t, IsBackend(err))
}

func TestBackendKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Backend("insert event", cause)
	assert.True(t, IsBackend(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert event: connection reset", err.Error())
}

func TestBackendDoesNotReclassify(t *testing.T) {
	err := Backend("get event", NotFound("event"))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "event not found", err.Error())
}
