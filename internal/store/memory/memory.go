package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
)

type Store struct {
	mu            sync.RWMutex
	storesByID    map[string]domain.Store
	storeOrder    []string
	organizations []domain.Organization
	bills         []domain.Bill
	amounts       map[domain.AmountSource][]domain.AmountRecord
	walletsByID   map[string]domain.Wallet
	payments      []domain.Payment
}

func New() *Store {
	return &Store{
		storesByID:  make(map[string]domain.Store),
		amounts:     make(map[domain.AmountSource][]domain.AmountRecord),
		walletsByID: make(map[string]domain.Wallet),
	}
}

// NewSeeded returns a store with a handful of demo stores whose bills are
// dated relative to now, so the daily chart is never empty in dev mode.
func NewSeeded() *Store {
	s := New()
	now := time.Now()
	onboarded := func(days int) *time.Time {
		t := now.AddDate(0, 0, -days)
		return &t
	}
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	s.PutStore(domain.Store{ID: "65f1c2a9b4d3e8f7a6b5c401", Name: "Toko Sinar Jaya", TenantID: domain.NewTenantID("tenant-sinar"), CreatedAt: onboarded(210)})
	s.PutStore(domain.Store{ID: "65f1c2a9b4d3e8f7a6b5c402", Name: "Warung Bu Tini", TenantID: domain.NewTenantID("tenant-tini"), CreatedAt: onboarded(95)})
	s.PutStore(domain.Store{ID: "65f1c2a9b4d3e8f7a6b5c403", Name: "Toko Sinar Jaya", CreatedAt: onboarded(12)})
	s.PutStore(domain.Store{ID: "65f1c2a9b4d3e8f7a6b5c404", Name: ""})

	s.PutOrganization(domain.Organization{TenantID: domain.NewTenantID("tenant-sinar"), Name: "Sinar Jaya Group", PhoneNumbers: []string{"+62 812 0000 1111"}})
	s.PutOrganization(domain.Organization{TenantID: domain.NewTenantID("tenant-tini"), Name: "Warung Bu Tini", PhoneNumbers: []string{}, Mobile: "+62 813 2222 3333"})

	s.PutBill(domain.Bill{ID: "bill-1001", StoreID: "65f1c2a9b4d3e8f7a6b5c401", CreatedAt: ago(30 * time.Minute)})
	s.PutBill(domain.Bill{ID: "bill-1002", StoreID: "65f1c2a9b4d3e8f7a6b5c401", CreatedAt: ago(26 * time.Hour)})
	s.PutBill(domain.Bill{ID: "bill-1002", StoreID: "65f1c2a9b4d3e8f7a6b5c401", CreatedAt: ago(26 * time.Hour)})
	s.PutBill(domain.Bill{ID: "bill-2001", StoreID: "65f1c2a9b4d3e8f7a6b5c402", CreatedAt: ago(10 * time.Minute)})
	s.PutBill(domain.Bill{ID: "bill-2002", StoreID: "65f1c2a9b4d3e8f7a6b5c402", CreatedAt: ago(5 * time.Minute)})
	s.PutBill(domain.Bill{ID: "bill-3001", StoreID: "65f1c2a9b4d3e8f7a6b5c403", CreatedAt: ago(72 * time.Hour)})

	s.PutAmount(domain.AmountSourceInvoice, domain.AmountRecord{BillID: "bill-1001", Amount: 100.4})
	s.PutAmount(domain.AmountSourceReceipt, domain.AmountRecord{BillID: "bill-1002", Amount: ""})
	s.PutAmount(domain.AmountSourceTransaction, domain.AmountRecord{BillID: "bill-1002", Amount: "50"})
	s.PutAmount(domain.AmountSourceInvoice, domain.AmountRecord{BillID: "bill-2001", Amount: int64(75000)})
	s.PutAmount(domain.AmountSourceReceipt, domain.AmountRecord{BillID: "bill-2002", Amount: nil})

	s.PutWallet(domain.Wallet{TenantID: domain.NewTenantID("tenant-sinar"), AvailableBalance: decimal.RequireFromString("1250.456"), LifetimeConsumption: decimal.RequireFromString("310.1")})

	paid := decimal.RequireFromString("499000")
	s.PutPayment(domain.Payment{StoreID: "65f1c2a9b4d3e8f7a6b5c401", TenantID: domain.NewTenantID("tenant-sinar"), Status: "SUCCESS", NetAmount: &paid, PackageName: "Retail Pro", CreatedAt: onboarded(30)})
	s.PutPayment(domain.Payment{StoreID: "65f1c2a9b4d3e8f7a6b5c401", TenantID: domain.NewTenantID("tenant-sinar"), Status: "FAILED", NetAmount: &paid, PackageName: "Retail Max", CreatedAt: onboarded(2)})
	return s
}

func (s *Store) PutStore(st domain.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.storesByID[st.ID]; !exists {
		s.storeOrder = append(s.storeOrder, st.ID)
	}
	s.storesByID[st.ID] = st
}

func (s *Store) PutOrganization(org domain.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations = append(s.organizations, org)
}

func (s *Store) PutBill(bill domain.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = append(s.bills, bill)
}

func (s *Store) PutAmount(source domain.AmountSource, record domain.AmountRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amounts[source] = append(s.amounts[source], record)
}

func (s *Store) PutWallet(wallet domain.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletsByID[wallet.TenantID.String()] = wallet
}

func (s *Store) PutPayment(payment domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, payment)
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) ListStores(_ context.Context, limit int) ([]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Store, 0, len(s.storeOrder))
	for _, id := range s.storeOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.storesByID[id])
	}
	return out, nil
}

func (s *Store) DistinctStoreNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(s.storesByID))
	names := make([]string, 0, len(s.storesByID))
	for _, id := range s.storeOrder {
		name := s.storesByID[id].Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) GetStore(_ context.Context, storeID string) (*domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.storesByID[strings.TrimSpace(storeID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (s *Store) FindStoreByName(_ context.Context, name string) (*domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.storeOrder {
		st := s.storesByID[id]
		if st.Name == name {
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindOrganizationByTenant(_ context.Context, tenantID domain.TenantID) (*domain.Organization, error) {
	if !tenantID.Valid() {
		return nil, store.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.organizations {
		if org.TenantID.String() == tenantID.String() {
			found := org
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindOrganizationByName(_ context.Context, name string) (*domain.Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, store.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.organizations {
		if org.Name == name {
			found := org
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListBillIDs(_ context.Context, storeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, 16)
	for _, bill := range s.bills {
		if bill.StoreID == storeID {
			ids = append(ids, bill.ID)
		}
	}
	return ids, nil
}

func (s *Store) CountBillsCreatedBetween(_ context.Context, storeID string, from time.Time, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, bill := range s.bills {
		if bill.StoreID != storeID || bill.CreatedAt == nil {
			continue
		}
		if domain.WithinDay(*bill.CreatedAt, from, to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListBillsCreatedBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bill, 0, 16)
	for _, bill := range s.bills {
		if bill.CreatedAt != nil && domain.WithinDay(*bill.CreatedAt, from, to) {
			out = append(out, bill)
		}
	}
	return out, nil
}

func (s *Store) ListRecentBills(_ context.Context, storeID string, limit int) ([]domain.Bill, error) {
	s.mu.RLock()
	out := make([]domain.Bill, 0, 16)
	for _, bill := range s.bills {
		if bill.StoreID == storeID {
			out = append(out, bill)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.Bill) int {
		at, bt := createdOrZero(a.CreatedAt), createdOrZero(b.CreatedAt)
		if c := bt.Compare(at); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListAmounts(_ context.Context, source domain.AmountSource, billIDs []string) ([]domain.AmountRecord, error) {
	if len(billIDs) == 0 {
		return []domain.AmountRecord{}, nil
	}
	wanted := make(map[string]bool, len(billIDs))
	for _, id := range billIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.amounts[source]
	if !ok {
		return []domain.AmountRecord{}, nil
	}
	out := make([]domain.AmountRecord, 0, len(records))
	for _, record := range records {
		if wanted[record.BillID] {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *Store) GetWallet(_ context.Context, tenantID domain.TenantID) (*domain.Wallet, error) {
	if !tenantID.Valid() {
		return nil, store.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet, ok := s.walletsByID[tenantID.String()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &wallet, nil
}

func (s *Store) ListPayments(_ context.Context, storeID string) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Payment, 0, 8)
	for _, payment := range s.payments {
		if payment.StoreID == storeID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func createdOrZero(ts *time.Time) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return *ts
}

var _ store.Repository = (*Store)(nil)
