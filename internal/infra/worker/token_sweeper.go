package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweeper deletes expired magic-link tokens on a fixed interval.
type TokenSweeper struct {
	tokens       expiredTokenDeleter
	tickInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewTokenSweeper(tokens expiredTokenDeleter, interval time.Duration, logger *zap.Logger) *TokenSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenSweeper{
		tokens:       tokens,
		tickInterval: interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Start sweeps once immediately, then on every tick until ctx is done.
func (w *TokenSweeper) Start(ctx context.Context) {
	w.logger.Info("Token sweeper started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Token sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *TokenSweeper) sweep(ctx context.Context) {
	n, err := w.tokens.DeleteExpired(ctx, w.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed deleting expired tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		w.logger.Info("Expired tokens deleted", zap.Int64("count", n))
	}
}
