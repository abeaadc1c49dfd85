package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/config"
	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/comments"
	"github.com/gathering-hub/backend/internal/events"
	"github.com/gathering-hub/backend/internal/notices"
	"github.com/gathering-hub/backend/internal/notifications"
	"github.com/gathering-hub/backend/internal/store/memstore"
	"github.com/gathering-hub/backend/pkg/database"
)

type accountStore interface {
	auth.Store
	notifications.Recipients
}

type stores struct {
	accounts      accountStore
	events        events.Store
	notices       notices.Store
	comments      comments.Store
	notifications notifications.Store
	ping          func(ctx context.Context) error
	close         func()
}

// openStores connects the configured record store. STORE_DRIVER=memory keeps
// everything in process and is meant for local development.
func openStores(ctx context.Context, cfg config.StoreConfig, db config.DatabaseConfig, logger *zap.Logger) (*stores, error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory record store; data is lost on restart")
		m := memstore.New()
		return &stores{
			accounts:      m,
			events:        m,
			notices:       m,
			comments:      m,
			notifications: m,
			ping:          func(context.Context) error { return nil },
			close:         func() {},
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, db.DSN(), logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return postgresStores(pool), nil
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		accounts:      auth.NewRepository(pool),
		events:        events.NewRepository(pool),
		notices:       notices.NewRepository(pool),
		comments:      comments.NewRepository(pool),
		notifications: notifications.NewRepository(pool),
		ping:          pool.Ping,
		close:         pool.Close,
	}
}
