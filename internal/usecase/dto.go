package usecase

import (
	"encoding/json"
	"time"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

// BuyerInput is the candidate payload for create and update. Optional
// fields are pointers so "absent" and "empty" stay distinguishable.
type BuyerInput struct {
	FullName     string   `json:"fullName"`
	Email        *string  `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          *string  `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *Budget  `json:"budgetMin"`
	BudgetMax    *Budget  `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
	Status       *string  `json:"status"`
}

// Budget is a numeric amount. A JSON string decodes without error but is
// flagged Quoted, and validation rejects it.
type Budget struct {
	json.Number
	Quoted bool
}

func (b *Budget) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		b.Number, b.Quoted = json.Number(s), true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	b.Number, b.Quoted = n, false
	return nil
}

type UpdateBuyerInput struct {
	BuyerInput
	// UpdatedAt is the last timestamp the client saw. Required unless Force is set.
	UpdatedAt *time.Time `json:"updatedAt"`
	Force     bool       `json:"force"`
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportCsvOutput struct {
	InsertedCount int        `json:"insertedCount"`
	RowErrors     []RowError `json:"rowErrors"`
}

type ListBuyersInput struct {
	Filter entity.BuyerFilter
	Page   int
}

type ListBuyersOutput struct {
	Items      []*entity.Buyer `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

type BuyerDetailOutput struct {
	Buyer   *entity.Buyer          `json:"buyer"`
	History []*entity.HistoryEntry `json:"history"`
}
