package usecase

import (
	"context"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/queue"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type EventPublisher interface {
	PublishBuyerEvent(ctx context.Context, event queue.BuyerEvent) error
}

type EmailService interface {
	SendMagicLink(to, link string) error
	SendStatusChange(to, buyerName string, oldStatus, newStatus entity.Status) error
}

type SessionIssuer interface {
	Issue(user *entity.User) (string, error)
}
