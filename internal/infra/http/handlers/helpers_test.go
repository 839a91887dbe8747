package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
)

var (
	owner = entity.Identity{UserID: "owner-1", Email: "owner@example.com", Role: entity.RoleUser}
	other = entity.Identity{UserID: "other-1", Email: "other@example.com", Role: entity.RoleUser}

	t0 = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

const validBuyerJSON = `{
	"fullName": "Asha Rao",
	"email": "asha@example.com",
	"phone": "9876543210",
	"city": "MOHALI",
	"propertyType": "APARTMENT",
	"bhk": "TWO",
	"purpose": "BUY",
	"budgetMin": 5000000,
	"budgetMax": 7500000,
	"timeline": "ZERO_TO_THREE",
	"source": "WEBSITE",
	"tags": ["hot"]
}`

func seededBuyer(id, ownerID string, city entity.City) entity.Buyer {
	bhk := entity.BHKTwo
	return entity.Buyer{
		ID:           id,
		FullName:     "Seeded " + id,
		Phone:        "9876543210",
		City:         city,
		PropertyType: entity.PropertyApartment,
		BHK:          &bhk,
		Purpose:      entity.PurposeBuy,
		Timeline:     entity.TimelineExploring,
		Source:       entity.SourceCall,
		Status:       entity.StatusNew,
		Tags:         []string{},
		OwnerID:      ownerID,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
}

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func as(req *http.Request, identity entity.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func detailFields(body map[string]any) []string {
	details, _ := body["details"].([]any)
	var out []string
	for _, d := range details {
		if m, ok := d.(map[string]any); ok {
			out = append(out, m["field"].(string))
		}
	}
	return out
}
