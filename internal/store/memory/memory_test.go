package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
)

func at(hour int) *time.Time {
	t := time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestStoreLookups(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutStore(domain.Store{ID: "s1", Name: "Alpha", TenantID: domain.NewTenantID("t1")})
	s.PutStore(domain.Store{ID: "s2", Name: "Beta"})
	s.PutStore(domain.Store{ID: "s3", Name: "Alpha"})

	st, err := s.GetStore(ctx, " s2 ")
	require.NoError(t, err)
	assert.Equal(t, "Beta", st.Name)

	_, err = s.GetStore(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	byName, err := s.FindStoreByName(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "s1", byName.ID, "first inserted store wins")

	names, err := s.DistinctStoreNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)

	listed, err := s.ListStores(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "s1", listed[0].ID)
	assert.Equal(t, "s2", listed[1].ID)
}

func TestOrganizationAndWalletLookups(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutOrganization(domain.Organization{TenantID: domain.NewTenantID("t1"), Name: "Org One"})
	s.PutWallet(domain.Wallet{TenantID: domain.NewTenantID("t1"), AvailableBalance: decimal.NewFromInt(5)})

	org, err := s.FindOrganizationByTenant(ctx, domain.NewTenantID("t1"))
	require.NoError(t, err)
	assert.Equal(t, "Org One", org.Name)

	_, err = s.FindOrganizationByTenant(ctx, domain.TenantID{})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = s.FindOrganizationByName(ctx, "")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	wallet, err := s.GetWallet(ctx, domain.NewTenantID("t1"))
	require.NoError(t, err)
	assert.Equal(t, "5", wallet.AvailableBalance.String())

	_, err = s.GetWallet(ctx, domain.NewTenantID("t2"))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestBillQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutBill(domain.Bill{ID: "b1", StoreID: "s1", CreatedAt: at(1)})
	s.PutBill(domain.Bill{ID: "b2", StoreID: "s1", CreatedAt: at(5)})
	s.PutBill(domain.Bill{ID: "b3", StoreID: "s1"})
	s.PutBill(domain.Bill{ID: "b4", StoreID: "s2", CreatedAt: at(3)})

	ids, err := s.ListBillIDs(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, ids)

	count, err := s.CountBillsCreatedBetween(ctx, "s1", *at(0), *at(4))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	day, err := s.ListBillsCreatedBetween(ctx, *at(0), *at(23))
	require.NoError(t, err)
	assert.Len(t, day, 3)

	recent, err := s.ListRecentBills(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b2", recent[0].ID)
	assert.Equal(t, "b1", recent[1].ID)
}

func TestListAmountsFiltersBySourceAndBill(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutAmount(domain.AmountSourceInvoice, domain.AmountRecord{BillID: "b1", Amount: 10})
	s.PutAmount(domain.AmountSourceInvoice, domain.AmountRecord{BillID: "b9", Amount: 99})
	s.PutAmount(domain.AmountSourceReceipt, domain.AmountRecord{BillID: "b1", Amount: "5"})

	records, err := s.ListAmounts(ctx, domain.AmountSourceInvoice, []string{"b1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 10, records[0].Amount)

	none, err := s.ListAmounts(ctx, domain.AmountSourceTransaction, []string{"b1"})
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := s.ListAmounts(ctx, domain.AmountSourceInvoice, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewSeededIsUsable(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	stores, err := s.ListStores(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, stores, 4)

	payments, err := s.ListPayments(ctx, "65f1c2a9b4d3e8f7a6b5c401")
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	require.NoError(t, s.Close())
}
