package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Listener holds one pooled connection in LISTEN mode and hands every
// payload on the channel to a callback. It reconnects with a capped backoff.
type Listener struct {
	pool       *pgxpool.Pool
	channel    string
	logger     *zap.Logger
	maxBackoff time.Duration
}

func NewListener(pool *pgxpool.Pool, channel string, logger *zap.Logger) *Listener {
	return &Listener{
		pool:       pool,
		channel:    channel,
		logger:     logger,
		maxBackoff: 30 * time.Second,
	}
}

// Listen blocks until ctx is cancelled.
func (l *Listener) Listen(ctx context.Context, handle func(payload string)) error {
	backoff := time.Second
	for {
		err := l.listenOnce(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("Notification listener disconnected",
			zap.String("channel", l.channel),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > l.maxBackoff {
			backoff = l.maxBackoff
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, handle func(payload string)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	l.logger.Info("Listening for notifications", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		handle(n.Payload)
	}
}
