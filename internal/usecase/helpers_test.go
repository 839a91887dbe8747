package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

var (
	owner = entity.Identity{UserID: "owner-1", Email: "owner@example.com", Role: entity.RoleUser}
	other = entity.Identity{UserID: "other-1", Email: "other@example.com", Role: entity.RoleUser}
	admin = entity.Identity{UserID: "admin-1", Email: "admin@example.com", Role: entity.RoleAdmin}

	t0 = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func num(s string) *usecase.Budget {
	return &usecase.Budget{Number: json.Number(s)}
}

func validInput() usecase.BuyerInput {
	return usecase.BuyerInput{
		FullName:     "Asha Rao",
		Email:        strPtr("asha@example.com"),
		Phone:        "9876543210",
		City:         "MOHALI",
		PropertyType: "APARTMENT",
		BHK:          strPtr("TWO"),
		Purpose:      "BUY",
		BudgetMin:    num("5000000"),
		BudgetMax:    num("7500000"),
		Timeline:     "ZERO_TO_THREE",
		Source:       "WEBSITE",
		Notes:        strPtr("prefers east facing"),
		Tags:         []string{"hot"},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func requireCode(t *testing.T, err error, code string) *usecase.DomainError {
	t.Helper()
	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code)
	return de
}

func fieldNames(errs []usecase.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}
