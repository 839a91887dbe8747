package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "CREATED"
	ChangeUpdated ChangeKind = "UPDATED"
	ChangeDeleted ChangeKind = "DELETED"
)

// Diff is the payload of a history entry. The concrete types are
// Created, Updated and Deleted; consumers switch on them exhaustively.
type Diff interface {
	Kind() ChangeKind
}

type Created struct {
	After Buyer `json:"created"`
}

type Updated struct {
	Before Buyer `json:"before"`
	After  Buyer `json:"after"`
}

type Deleted struct {
	Before Buyer `json:"deleted"`
}

func (Created) Kind() ChangeKind { return ChangeCreated }
func (Updated) Kind() ChangeKind { return ChangeUpdated }
func (Deleted) Kind() ChangeKind { return ChangeDeleted }

// HistoryEntry is an immutable audit record. BuyerID is a weak reference:
// entries outlive the buyer they describe.
type HistoryEntry struct {
	ID        string
	BuyerID   string
	ChangedBy string
	Diff      Diff
	ChangedAt time.Time
}

type historyEntryJSON struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyerId"`
	ChangedBy string          `json:"changedBy"`
	Kind      ChangeKind      `json:"kind"`
	Diff      json.RawMessage `json:"diff"`
	ChangedAt time.Time       `json:"changedAt"`
}

func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(h.Diff)
	if err != nil {
		return nil, err
	}
	var kind ChangeKind
	if h.Diff != nil {
		kind = h.Diff.Kind()
	}
	return json.Marshal(historyEntryJSON{
		ID:        h.ID,
		BuyerID:   h.BuyerID,
		ChangedBy: h.ChangedBy,
		Kind:      kind,
		Diff:      raw,
		ChangedAt: h.ChangedAt,
	})
}

func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var aux historyEntryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	diff, err := DecodeDiff(aux.Kind, aux.Diff)
	if err != nil {
		return err
	}
	*h = HistoryEntry{
		ID:        aux.ID,
		BuyerID:   aux.BuyerID,
		ChangedBy: aux.ChangedBy,
		Diff:      diff,
		ChangedAt: aux.ChangedAt,
	}
	return nil
}

// DecodeDiff rebuilds the concrete diff for kind from its JSON form.
func DecodeDiff(kind ChangeKind, raw []byte) (Diff, error) {
	switch kind {
	case ChangeCreated:
		var d Created
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode created diff: %w", err)
		}
		return d, nil
	case ChangeUpdated:
		var d Updated
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode updated diff: %w", err)
		}
		return d, nil
	case ChangeDeleted:
		var d Deleted
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode deleted diff: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown change kind %q", kind)
	}
}

type HistoryRepositoryInterface interface {
	Append(ctx context.Context, h *HistoryEntry) error
	// ListByBuyer returns the newest entries first.
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*HistoryEntry, error)
}
