package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
	"github.com/xavierca1/buyer-leads/internal/usecase/usecasetest"
)

var header = strings.Join(usecase.CSVHeader, ",")

func csvRow(name, propertyType, bhk string) string {
	return fmt.Sprintf("%s,%s@example.com,9876543210,mohali,%s,%s,buy,100,200,zero_to_three,website,,\"hot, nri\",", name, strings.ToLower(strings.ReplaceAll(name, " ", "")), propertyType, bhk)
}

func TestImportCsv_PartialSuccess(t *testing.T) {
	store := usecasetest.NewStore()
	pub := &usecasetest.Publisher{}
	uc := usecase.NewImportCsvUseCase(store, pub, nil)

	lines := []string{
		header,
		csvRow("Row Two", "APARTMENT", "TWO"),
		csvRow("Row Three", "VILLA", ""), // bhk missing
		csvRow("Row Four", "PLOT", ""),
		csvRow("Row Five", "OFFICE", ""),
		csvRow("Row Six", "APARTMENT", ""), // bhk missing
		csvRow("Row Seven", "RETAIL", ""),
		csvRow("Row Eight", "VILLA", "FOUR"),
	}

	out, err := uc.Execute(context.Background(), owner, strings.Join(lines, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, out.InsertedCount)
	require.Len(t, out.RowErrors, 2)
	assert.Equal(t, 3, out.RowErrors[0].Row)
	assert.Equal(t, 6, out.RowErrors[1].Row)
	assert.True(t, strings.HasPrefix(out.RowErrors[0].Message, "Validation: "))
	assert.Contains(t, out.RowErrors[0].Message, "bhk")

	assert.Equal(t, 5, store.BuyerCount())
	assert.Len(t, store.History(), 5)
	assert.Len(t, pub.Events(), 5)

	for _, h := range store.History() {
		created, ok := h.Diff.(entity.Created)
		require.True(t, ok)
		assert.Equal(t, owner.UserID, h.ChangedBy)
		assert.Equal(t, []string{"hot", "nri"}, created.After.Tags)
		assert.Equal(t, entity.StatusNew, created.After.Status)
		assert.Equal(t, entity.CityMohali, created.After.City)
	}
}

func TestImportCsv_RowLimit(t *testing.T) {
	store := usecasetest.NewStore()
	uc := usecase.NewImportCsvUseCase(store, nil, nil)

	lines := []string{header}
	for i := 0; i < usecase.MaxImportRows+1; i++ {
		lines = append(lines, csvRow(fmt.Sprintf("Buyer %d", i), "PLOT", ""))
	}

	out, err := uc.Execute(context.Background(), owner, strings.Join(lines, "\n"))
	assert.Nil(t, out)
	de := requireCode(t, err, usecase.CodeBadFormat)
	assert.Contains(t, de.Message, "200")
	assert.Zero(t, store.BuyerCount())
}

func TestImportCsv_ExactlyAtLimit(t *testing.T) {
	store := usecasetest.NewStore()
	uc := usecase.NewImportCsvUseCase(store, nil, nil)

	lines := []string{header}
	for i := 0; i < usecase.MaxImportRows; i++ {
		lines = append(lines, csvRow(fmt.Sprintf("Buyer %d", i), "PLOT", ""))
	}

	out, err := uc.Execute(context.Background(), owner, strings.Join(lines, "\n"))
	require.NoError(t, err)
	assert.Equal(t, usecase.MaxImportRows, out.InsertedCount)
}

func TestImportCsv_HeaderContract(t *testing.T) {
	uc := usecase.NewImportCsvUseCase(usecasetest.NewStore(), nil, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, owner, "")
	requireCode(t, err, usecase.CodeBadFormat)

	_, err = uc.Execute(ctx, owner, "\n\r\n")
	requireCode(t, err, usecase.CodeBadFormat)

	_, err = uc.Execute(ctx, owner, "fullName,email\nAsha,a@b.co")
	de := requireCode(t, err, usecase.CodeBadFormat)
	assert.Contains(t, de.Message, header)

	upper := strings.ToUpper(header)
	out, err := uc.Execute(ctx, owner, "\ufeff"+upper+"\r\n"+csvRow("Asha Rao", "PLOT", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, out.InsertedCount)
}

func TestImportCsv_RowErrorKinds(t *testing.T) {
	store := usecasetest.NewStore()
	uc := usecase.NewImportCsvUseCase(store, nil, nil)

	lines := []string{
		header,
		",a@b.co,9876543210,MOHALI,PLOT,,BUY,,,EXPLORING,CALL,,,",
		"Asha Rao,,9876543210,MOHALI,PLOT,,BUY,lots,,EXPLORING,CALL,,,",
		"Asha Rao,,9876543210,MOHALI,PLOT,,BUY,,,EXPLORING,CALL,,,lost",
		"Asha Rao,,9876543210,MOHALI,PLOT",
	}
	out, err := uc.Execute(context.Background(), owner, strings.Join(lines, "\n"))
	require.NoError(t, err)

	assert.Zero(t, out.InsertedCount)
	require.Len(t, out.RowErrors, 4)
	assert.Equal(t, usecase.RowError{Row: 2, Message: "CSV parse error: fullName: is required"}, out.RowErrors[0])
	assert.Equal(t, usecase.RowError{Row: 3, Message: "Validation: budgetMin: must be an integer"}, out.RowErrors[1])
	assert.Equal(t, 4, out.RowErrors[2].Row)
	assert.Contains(t, out.RowErrors[2].Message, "status")
	assert.Equal(t, 5, out.RowErrors[3].Row)
	assert.Contains(t, out.RowErrors[3].Message, "purpose: is required")
}

func TestImportCsv_InvalidUTF8IsARowError(t *testing.T) {
	store := usecasetest.NewStore()
	uc := usecase.NewImportCsvUseCase(store, nil, nil)

	lines := []string{
		header,
		csvRow("Row Two", "PLOT", ""),
		"Row Three,,9876543210,MOHALI,PLOT,,BUY,,,EXPLORING,CALL,bad \xff\xfe bytes,,",
		csvRow("Row Four", "OFFICE", ""),
	}
	out, err := uc.Execute(context.Background(), owner, strings.Join(lines, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, out.InsertedCount)
	require.Len(t, out.RowErrors, 1)
	assert.Equal(t, 3, out.RowErrors[0].Row)
	assert.Contains(t, out.RowErrors[0].Message, "notes: must be valid UTF-8 text")
	assert.Equal(t, 2, store.BuyerCount())
}

func TestImportCsv_StorageFailureInsertsNothing(t *testing.T) {
	store := usecasetest.NewStore()
	store.FailHistoryAppend = errors.New("disk full")
	uc := usecase.NewImportCsvUseCase(store, nil, nil)

	text := strings.Join([]string{header, csvRow("Row Two", "PLOT", ""), csvRow("Row Three", "PLOT", "")}, "\n")
	out, err := uc.Execute(context.Background(), owner, text)

	assert.Nil(t, out)
	assert.Equal(t, usecase.CodeStorage, usecase.ErrorCode(err))
	assert.Zero(t, store.BuyerCount())
}

func TestExportThenImportRoundTrip(t *testing.T) {
	source := usecasetest.NewStore()
	create := usecase.NewCreateBuyerUseCase(source, nil, nil, nil)

	tricky := validInput()
	tricky.FullName = `Ravi "RK" Kumar`
	tricky.Notes = strPtr("first line\nsecond, with comma")
	tricky.Tags = []string{"a", "b c"}
	plot := validInput()
	plot.FullName = "Plot Buyer"
	plot.PropertyType = "PLOT"
	plot.BHK = nil
	plot.Email = nil
	plot.BudgetMin, plot.BudgetMax = nil, nil
	plot.Status = strPtr("VISITED")

	for _, in := range []usecase.BuyerInput{validInput(), tricky, plot} {
		_, err := create.Execute(context.Background(), owner, in)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, usecase.NewExportCsvUseCase(source, nil).Execute(context.Background(), entity.BuyerFilter{}, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), header+"\r\n"))
	assert.False(t, strings.HasSuffix(buf.String(), "\r\n"))

	target := usecasetest.NewStore()
	out, err := usecase.NewImportCsvUseCase(target, nil, nil).Execute(context.Background(), other, buf.String())
	require.NoError(t, err)
	require.Empty(t, out.RowErrors)
	assert.Equal(t, 3, out.InsertedCount)

	assert.Equal(t, portable(t, source), portable(t, target))
}

// portable lists buyers without generated ids, owners and timestamps.
func portable(t *testing.T, store *usecasetest.Store) []entity.Buyer {
	t.Helper()
	found, err := store.Reader().Buyers().Find(context.Background(), entity.BuyerFilter{}, nil)
	require.NoError(t, err)

	out := make([]entity.Buyer, len(found))
	for i, b := range found {
		c := *b
		c.ID, c.OwnerID = "", ""
		c.CreatedAt, c.UpdatedAt = t0, t0
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func TestExportCsv_Filtered(t *testing.T) {
	store := usecasetest.NewStore()
	seedMany(store, 2, entity.CityMohali)
	seedMany(store, 1, entity.CityOther)

	var buf bytes.Buffer
	err := usecase.NewExportCsvUseCase(store, nil).Execute(context.Background(), entity.BuyerFilter{City: entity.CityOther}, &buf)
	require.NoError(t, err)

	lines := strings.Split(buf.String(), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, header, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Buyer 00,,"))
}
