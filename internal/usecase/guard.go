package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/buyer-leads/internal/entity"
)

// Authorize allows a mutation of b by its owner or by an admin.
func Authorize(identity entity.Identity, b *entity.Buyer) error {
	if identity.UserID == b.OwnerID || identity.IsAdmin() {
		return nil
	}
	return errForbidden
}

// CheckFreshness rejects the mutation when the timestamp the client last saw
// is not the stored one. A nil expected timestamp means the caller forced it.
func CheckFreshness(expected *time.Time, current time.Time) error {
	if expected == nil {
		return nil
	}
	if !sameInstant(*expected, current) {
		return newConflict(current)
	}
	return nil
}

func newConflict(current time.Time) *DomainError {
	c := current
	return &DomainError{
		Code:             CodeConflict,
		Message:          "record changed on server, please refresh",
		CurrentUpdatedAt: &c,
	}
}

// Postgres keeps microseconds; comparing beyond that would reject every
// timestamp that went through the database.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}

// nextUpdatedAt returns a timestamp strictly after prev.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

func currentTime(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}

func newHistoryEntry(buyerID, changedBy string, diff entity.Diff, at time.Time) *entity.HistoryEntry {
	return &entity.HistoryEntry{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		ChangedBy: changedBy,
		Diff:      diff,
		ChangedAt: at,
	}
}
