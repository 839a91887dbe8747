package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

type historyRow struct {
	ID        string    `db:"id"`
	BuyerID   string    `db:"buyer_id"`
	ChangedBy string    `db:"changed_by"`
	Kind      string    `db:"kind"`
	Diff      []byte    `db:"diff"`
	ChangedAt time.Time `db:"changed_at"`
}

type HistoryRepository struct {
	DB DBTX
}

func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

func (r *HistoryRepository) Append(ctx context.Context, h *entity.HistoryEntry) error {
	if h.Diff == nil {
		return fmt.Errorf("append history: entry %s has no diff", h.ID)
	}
	diff, err := json.Marshal(h.Diff)
	if err != nil {
		return fmt.Errorf("encode history diff: %w", err)
	}

	query := `
		INSERT INTO buyer_history (id, buyer_id, changed_by, kind, diff, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.DB.ExecContext(ctx, query, h.ID, h.BuyerID, h.ChangedBy, string(h.Diff.Kind()), string(diff), h.ChangedAt)
	if err != nil {
		return wrapDBError("append history", err)
	}
	return nil
}

func (r *HistoryRepository) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*entity.HistoryEntry, error) {
	buyerID, ok := canonicalID(buyerID)
	if !ok {
		return []*entity.HistoryEntry{}, nil
	}
	query := `
		SELECT id, buyer_id, changed_by, kind, diff, changed_at
		FROM buyer_history
		WHERE buyer_id = $1
		ORDER BY changed_at DESC, id
		LIMIT $2`

	var rows []historyRow
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query, buyerID, limit); err != nil {
		return nil, wrapDBError("list history", err)
	}

	out := make([]*entity.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		diff, err := entity.DecodeDiff(entity.ChangeKind(row.Kind), row.Diff)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", row.ID, err)
		}
		out = append(out, &entity.HistoryEntry{
			ID:        row.ID,
			BuyerID:   row.BuyerID,
			ChangedBy: row.ChangedBy,
			Diff:      diff,
			ChangedAt: row.ChangedAt.UTC(),
		})
	}
	return out, nil
}
