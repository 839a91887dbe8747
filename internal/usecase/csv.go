package usecase

import (
	"strconv"
	"strings"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

// CSVHeader is the column order shared by import and export.
var CSVHeader = []string{
	"fullName",
	"email",
	"phone",
	"city",
	"propertyType",
	"bhk",
	"purpose",
	"budgetMin",
	"budgetMax",
	"timeline",
	"source",
	"notes",
	"tags",
	"status",
}

// parseCSV splits text into rows of fields. Inside double quotes a doubled
// quote is a literal quote and separators are plain text. CRLF counts as
// one terminator and blank lines produce no row.
func parseCSV(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cur      strings.Builder
		inQuotes bool
	)
	flush := func() {
		if cur.Len() > 0 || len(row) > 0 {
			row = append(row, cur.String())
			rows = append(rows, row)
			row = nil
			cur.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			row = append(row, cur.String())
			cur.Reset()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			flush()
			if ch == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return rows
}

func headerMatches(row []string) bool {
	if len(row) != len(CSVHeader) {
		return false
	}
	for i, h := range CSVHeader {
		if !strings.EqualFold(strings.TrimSpace(row[i]), h) {
			return false
		}
	}
	return true
}

func formatCSVRow(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, "\",\n\r") {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		out[i] = f
	}
	return strings.Join(out, ",")
}

func buyerCSVFields(b *entity.Buyer) []string {
	return []string{
		b.FullName,
		derefString(b.Email),
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		derefBHK(b.BHK),
		string(b.Purpose),
		formatInt(b.BudgetMin),
		formatInt(b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		derefString(b.Notes),
		strings.Join(b.Tags, ","),
		string(b.Status),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBHK(b *entity.BHK) string {
	if b == nil {
		return ""
	}
	return string(*b)
}

func formatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
