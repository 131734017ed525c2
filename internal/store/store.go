package store

import (
	"context"
	"errors"
	"time"

	"storeinsight/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Repository is the read-only view over the retail collections. Lookups that
// miss return ErrNotFound; list lookups that miss return an empty slice.
type Repository interface {
	Ping(ctx context.Context) error
	ListStores(ctx context.Context, limit int) ([]domain.Store, error)
	DistinctStoreNames(ctx context.Context) ([]string, error)
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
	FindStoreByName(ctx context.Context, name string) (*domain.Store, error)
	FindOrganizationByTenant(ctx context.Context, tenantID domain.TenantID) (*domain.Organization, error)
	FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error)
	ListBillIDs(ctx context.Context, storeID string) ([]string, error)
	CountBillsCreatedBetween(ctx context.Context, storeID string, from time.Time, to time.Time) (int, error)
	ListBillsCreatedBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Bill, error)
	ListRecentBills(ctx context.Context, storeID string, limit int) ([]domain.Bill, error)
	ListAmounts(ctx context.Context, source domain.AmountSource, billIDs []string) ([]domain.AmountRecord, error)
	GetWallet(ctx context.Context, tenantID domain.TenantID) (*domain.Wallet, error)
	ListPayments(ctx context.Context, storeID string) ([]domain.Payment, error)
	Close() error
}
