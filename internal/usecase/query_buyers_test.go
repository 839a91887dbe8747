package usecase_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
	"github.com/xavierca1/buyer-leads/internal/usecase/usecasetest"
)

func seedMany(store *usecasetest.Store, n int, city entity.City) {
	for i := 0; i < n; i++ {
		store.Put(entity.Buyer{
			ID:        fmt.Sprintf("%s-%02d", city, i),
			FullName:  fmt.Sprintf("Buyer %02d", i),
			Phone:     fmt.Sprintf("98765432%02d", i),
			City:      city,
			Status:    entity.StatusNew,
			Tags:      []string{},
			OwnerID:   owner.UserID,
			UpdatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestListBuyers_Paging(t *testing.T) {
	store := usecasetest.NewStore()
	seedMany(store, 12, entity.CityMohali)
	uc := usecase.NewQueryBuyersUseCase(store, nil)

	page1, err := uc.List(context.Background(), usecase.ListBuyersInput{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 12, page1.Total)
	assert.Equal(t, 2, page1.TotalPages)
	require.Len(t, page1.Items, usecase.PageSize)
	assert.Equal(t, "MOHALI-11", page1.Items[0].ID, "newest first")

	page2, err := uc.List(context.Background(), usecase.ListBuyersInput{Page: 2})
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "MOHALI-00", page2.Items[1].ID)
}

func TestListBuyers_PagePastTheEndClampsToLast(t *testing.T) {
	store := usecasetest.NewStore()
	seedMany(store, 12, entity.CityMohali)
	uc := usecase.NewQueryBuyersUseCase(store, nil)

	for _, page := range []int{3, math.MaxInt} {
		out, err := uc.List(context.Background(), usecase.ListBuyersInput{Page: page})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Page)
		require.Len(t, out.Items, 2)
		assert.Equal(t, "MOHALI-00", out.Items[1].ID)
	}
}

func TestListBuyers_EmptyHasOnePage(t *testing.T) {
	uc := usecase.NewQueryBuyersUseCase(usecasetest.NewStore(), nil)

	out, err := uc.List(context.Background(), usecase.ListBuyersInput{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 1, out.TotalPages)
	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
}

func TestListBuyers_Filters(t *testing.T) {
	store := usecasetest.NewStore()
	seedMany(store, 3, entity.CityMohali)
	seedMany(store, 2, entity.CityZirakpur)
	uc := usecase.NewQueryBuyersUseCase(store, nil)

	out, err := uc.List(context.Background(), usecase.ListBuyersInput{Filter: entity.BuyerFilter{City: entity.CityZirakpur}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)

	out, err = uc.List(context.Background(), usecase.ListBuyersInput{Filter: entity.BuyerFilter{Query: "buyer 01"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total, "matched case-insensitively in both cities")

	out, err = uc.List(context.Background(), usecase.ListBuyersInput{Filter: entity.BuyerFilter{Query: "5432"}})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Total, "phone substring")
}

func TestGetBuyer_WithRecentHistory(t *testing.T) {
	store := usecasetest.NewStore()
	created := seedBuyer(t, store, owner)
	update := usecase.NewUpdateBuyerUseCase(store, nil, nil)

	last := created.UpdatedAt
	for i := 0; i < 6; i++ {
		in := updateInput(last)
		in.FullName = fmt.Sprintf("Asha %d", i)
		b, err := update.Execute(context.Background(), owner, created.ID, in)
		require.NoError(t, err)
		last = b.UpdatedAt
	}

	out, err := usecase.NewQueryBuyersUseCase(store, nil).Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha 5", out.Buyer.FullName)
	require.Len(t, out.History, 5)

	newest, ok := out.History[0].Diff.(entity.Updated)
	require.True(t, ok)
	assert.Equal(t, "Asha 5", newest.After.FullName)
}

func TestGetBuyer_NotFound(t *testing.T) {
	_, err := usecase.NewQueryBuyersUseCase(usecasetest.NewStore(), nil).Get(context.Background(), "missing")
	requireCode(t, err, usecase.CodeNotFound)
}

func TestCityCounts(t *testing.T) {
	store := usecasetest.NewStore()
	seedMany(store, 3, entity.CityMohali)
	seedMany(store, 1, entity.CityOther)

	counts, err := usecase.NewQueryBuyersUseCase(store, nil).CityCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.CityCount{
		{City: entity.CityMohali, Count: 3},
		{City: entity.CityOther, Count: 1},
	}, counts)
}
