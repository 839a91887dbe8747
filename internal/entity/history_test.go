package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEntry_JSONShape(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	before := Buyer{ID: "b-1", FullName: "Asha", Status: StatusNew, Tags: []string{}}
	after := before
	after.Status = StatusVisited

	tests := []struct {
		name    string
		diff    Diff
		kind    string
		diffKey []string
	}{
		{"created", Created{After: after}, "CREATED", []string{"created"}},
		{"updated", Updated{Before: before, After: after}, "UPDATED", []string{"after", "before"}},
		{"deleted", Deleted{Before: before}, "DELETED", []string{"deleted"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := HistoryEntry{ID: "h-1", BuyerID: "b-1", ChangedBy: "u-1", Diff: tt.diff, ChangedAt: at}

			raw, err := json.Marshal(entry)
			require.NoError(t, err)

			var shape map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &shape))
			assert.JSONEq(t, `"`+tt.kind+`"`, string(shape["kind"]))

			var diff map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(shape["diff"], &diff))
			var keys []string
			for k := range diff {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.diffKey, keys)

			var decoded HistoryEntry
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, entry, decoded)
		})
	}
}

func TestDecodeDiff_UnknownKind(t *testing.T) {
	_, err := DecodeDiff("RENAMED", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown change kind")
}

func TestVerificationToken_Expired(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	vt := VerificationToken{Expires: now}

	assert.False(t, vt.Expired(now))
	assert.True(t, vt.Expired(now.Add(time.Second)))
}

func TestPropertyType_IsResidential(t *testing.T) {
	assert.True(t, PropertyApartment.IsResidential())
	assert.True(t, PropertyVilla.IsResidential())
	assert.False(t, PropertyPlot.IsResidential())
	assert.False(t, PropertyOffice.IsResidential())
	assert.False(t, PropertyRetail.IsResidential())
}
