package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// AdvisoryLocker serializes work per key with session-level advisory locks.
// Each held lock pins one pooled connection until it is released.
type AdvisoryLocker struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAdvisoryLocker(db *sql.DB, logger *zap.Logger) *AdvisoryLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisoryLocker{db: db, logger: logger.Named("advisory_lock")}
}

// Lock blocks until the lock for key is held or ctx is done.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1))", key); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			l.logger.Warn("advisory unlock failed", zap.String("key", key), zap.Error(err))
		}
		_ = conn.Close()
	}, nil
}
