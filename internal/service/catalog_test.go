package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
	"storeinsight/backend/internal/store/memory"
)

func TestBuildStoreOptionsLabelsDuplicates(t *testing.T) {
	options := BuildStoreOptions([]domain.Store{
		{ID: "65f1c2a9b4d3e8f7a6b5c401", Name: "Toko Sinar Jaya"},
		{ID: "65f1c2a9b4d3e8f7a6b5c402", Name: "Warung Bu Tini"},
		{ID: "77aa00b9b4d3e8f7a6b5c403", Name: "Toko Sinar Jaya"},
		{ID: "abc", Name: ""},
	})

	require.Len(t, options, 4)
	assert.Equal(t, "Toko Sinar Jaya", options[0].Label)
	assert.Equal(t, "Warung Bu Tini", options[1].Label)
	assert.Equal(t, "Toko Sinar Jaya (77aa00)", options[2].Label)
	assert.Equal(t, "Toko Sinar Jaya", options[2].StoreName)
	assert.Equal(t, "(No Name)", options[3].Label)
	assert.Equal(t, "abc", options[3].StoreID)
}

func TestListStoreOptionsIsCached(t *testing.T) {
	repo := memory.New()
	repo.PutStore(domain.Store{ID: "s1", Name: "Alpha"})
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.ListStoreOptions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	repo.PutStore(domain.Store{ID: "s2", Name: "Beta"})

	second, err := svc.ListStoreOptions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second, "served from cache until the ttl expires")

	fresh, err := svc.ListStoreOptions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestDistinctStoreNames(t *testing.T) {
	svc := newTestService(t, memory.NewSeeded())

	names, err := svc.DistinctStoreNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Toko Sinar Jaya", "Warung Bu Tini"}, names)
}

func TestRecentBills(t *testing.T) {
	repo := memory.New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		repo.PutBill(domain.Bill{ID: string(rune('a' + i)), StoreID: "s1", CreatedAt: ts(base.Add(time.Duration(i) * time.Hour))})
	}
	svc := newTestService(t, repo)

	recent, err := svc.RecentBills(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent.Bills, 2)
	assert.Equal(t, "e", recent.Bills[0].ID)
	assert.Equal(t, "d", recent.Bills[1].ID)

	all, err := svc.RecentBills(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all.Bills, 5)

	_, err = svc.RecentBills(context.Background(), "", 10)
	assert.True(t, errors.Is(err, store.ErrInvalidQuery))
}

func TestDailyBillChart(t *testing.T) {
	repo := seedChain()
	repo.PutBill(domain.Bill{ID: "orphan", StoreID: "ghost", CreatedAt: ts(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))})
	svc := newTestService(t, repo)

	chart, err := svc.DailyBillChart(context.Background(), "2026-03-10")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", chart.Date)
	assert.Equal(t, 4, chart.TotalBills)
	assert.Equal(t, []domain.DailyBillCount{
		{StoreName: "Toko Satu", Bills: 2},
		{StoreName: "(unknown store)", Bills: 1},
		{StoreName: "Toko Dua", Bills: 1},
	}, chart.Rows)

	today, err := svc.DailyBillChart(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", today.Date)

	previous, err := svc.DailyBillChart(context.Background(), "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 1, previous.TotalBills)

	_, err = svc.DailyBillChart(context.Background(), "10/03/2026")
	assert.True(t, errors.Is(err, store.ErrInvalidQuery))
}

func TestRankBillCountsEmpty(t *testing.T) {
	assert.Empty(t, RankBillCounts(map[string]int{}))
}
