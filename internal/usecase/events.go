package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/queue"
)

// publishEvents fans committed history out to the broker. The mutation is
// already durable at this point, so failures are only logged.
func publishEvents(ctx context.Context, pub EventPublisher, logger *zap.Logger, entries ...*entity.HistoryEntry) {
	if pub == nil {
		return
	}
	for _, h := range entries {
		if err := pub.PublishBuyerEvent(ctx, queue.NewBuyerEvent(h)); err != nil {
			logger.Warn("Failed publishing buyer event",
				zap.String("buyerId", h.BuyerID),
				zap.String("kind", string(h.Diff.Kind())),
				zap.Error(err))
		}
	}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
