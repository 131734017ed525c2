package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storeinsight/backend/internal/cache"
	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/metrics"
	"storeinsight/backend/internal/store"
)

const (
	defaultStoreListLimit = 10000
	defaultRecentBills    = 50
	maxRecentBills        = 200
	unknownStoreName      = "(unknown store)"
	noStoreName           = "(No Name)"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	Cache          cache.Cache
	CacheTTL       time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Location       *time.Location
	StoreListLimit int
	Now            func() time.Time
}

type Service struct {
	repo           store.Repository
	cache          cache.Cache
	cacheTTL       time.Duration
	metrics        *metrics.Metrics
	logger         *slog.Logger
	loc            *time.Location
	storeListLimit int
	now            func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.StoreListLimit < 1 {
		opts.StoreListLimit = defaultStoreListLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:           repo,
		cache:          opts.Cache,
		cacheTTL:       opts.CacheTTL,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		loc:            opts.Location,
		storeListLimit: opts.StoreListLimit,
		now:            opts.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// StoreSummary aggregates the metric cards for one store. Lookup failures
// never fail the call: they are logged, recorded in Warnings and replaced by
// zero or "not available".
func (s *Service) StoreSummary(ctx context.Context, storeID string) (domain.StoreSummary, error) {
	storeID = strings.TrimSpace(storeID)
	if err := ValidateStoreID(storeID); err != nil {
		return domain.StoreSummary{}, err
	}

	summary := domain.EmptySummary(storeID)
	summary.GeneratedAt = s.now().UTC()

	st, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.lookupFailed(ctx, &summary, "store", err)
		}
		return summary, nil
	}
	return s.summarize(ctx, summary, st), nil
}

// StoreSummaryByName resolves the first store carrying name, then aggregates
// it like StoreSummary.
func (s *Service) StoreSummaryByName(ctx context.Context, name string) (domain.StoreSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.StoreSummary{}, fmt.Errorf("%w: store_name is required", store.ErrInvalidQuery)
	}

	summary := domain.EmptySummary("")
	summary.StoreName = name
	summary.GeneratedAt = s.now().UTC()

	st, err := s.repo.FindStoreByName(ctx, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.lookupFailed(ctx, &summary, "store", err)
		}
		return summary, nil
	}
	summary.StoreID = st.ID
	return s.summarize(ctx, summary, st), nil
}

func (s *Service) summarize(ctx context.Context, summary domain.StoreSummary, st *domain.Store) domain.StoreSummary {
	startedAt := time.Now()
	defer func() { s.metrics.SummaryBuilt(time.Since(startedAt)) }()

	summary.Found = true
	summary.StoreName = st.Name
	summary.OnboardDate = domain.FormatOnboardDate(st.CreatedAt, s.loc)

	if org := s.resolveOrganization(ctx, &summary, st); org != nil {
		summary.OrganizationPhone = domain.OrNotAvailable(org.PrimaryPhone())
	}

	billIDs := s.resolveBillIDs(ctx, &summary, st.ID)
	summary.BillCount = len(billIDs)
	summary.TotalRevenue = s.sumRevenue(ctx, &summary, billIDs).IntPart()

	if wallet := s.resolveWallet(ctx, &summary, st.TenantID); wallet != nil {
		summary.WalletBalance = domain.RoundMoney(wallet.AvailableBalance)
		summary.WalletConsumption = domain.RoundMoney(wallet.LifetimeConsumption)
	}

	s.applyPayments(ctx, &summary, st.ID)

	from, to := domain.DayBounds(s.now(), s.loc)
	today, err := s.repo.CountBillsCreatedBetween(ctx, st.ID, from, to)
	if err != nil {
		s.lookupFailed(ctx, &summary, "todays_bills", err)
	} else {
		summary.TodaysBillCount = today
	}

	return summary
}

// resolveOrganization tries the tenant reference first and falls back to an
// organization named like the store.
func (s *Service) resolveOrganization(ctx context.Context, summary *domain.StoreSummary, st *domain.Store) *domain.Organization {
	if st.TenantID.Valid() {
		org, err := s.repo.FindOrganizationByTenant(ctx, st.TenantID)
		if err == nil {
			return org
		}
		if !errors.Is(err, store.ErrNotFound) {
			s.lookupFailed(ctx, summary, "organization", err)
		}
	}

	if strings.TrimSpace(st.Name) == "" {
		return nil
	}
	org, err := s.repo.FindOrganizationByName(ctx, st.Name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.lookupFailed(ctx, summary, "organization_by_name", err)
		}
		return nil
	}
	return org
}

// resolveBillIDs returns the deduplicated, sorted bill identifiers of a store.
func (s *Service) resolveBillIDs(ctx context.Context, summary *domain.StoreSummary, storeID string) []string {
	ids, err := s.repo.ListBillIDs(ctx, storeID)
	if err != nil {
		s.lookupFailed(ctx, summary, "bills", err)
		return nil
	}
	return DedupIDs(ids)
}

func (s *Service) sumRevenue(ctx context.Context, summary *domain.StoreSummary, billIDs []string) decimal.Decimal {
	total := decimal.Zero
	if len(billIDs) == 0 {
		return total
	}
	for _, source := range domain.AmountSources {
		records, err := s.repo.ListAmounts(ctx, source, billIDs)
		if err != nil {
			s.lookupFailed(ctx, summary, string(source), err)
			continue
		}
		total = total.Add(domain.SumAmounts(records))
	}
	return total
}

func (s *Service) resolveWallet(ctx context.Context, summary *domain.StoreSummary, tenantID domain.TenantID) *domain.Wallet {
	if !tenantID.Valid() {
		return nil
	}
	wallet, err := s.repo.GetWallet(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.lookupFailed(ctx, summary, "wallet", err)
		}
		return nil
	}
	return wallet
}

func (s *Service) applyPayments(ctx context.Context, summary *domain.StoreSummary, storeID string) {
	payments, err := s.repo.ListPayments(ctx, storeID)
	if err != nil {
		s.lookupFailed(ctx, summary, "payments", err)
		return
	}

	total, pkg := SummarizePayments(payments)
	summary.TotalPayment = domain.RoundMoney(total)
	summary.PackageName = domain.OrNotAvailable(pkg)
}

func (s *Service) lookupFailed(ctx context.Context, summary *domain.StoreSummary, lookup string, err error) {
	s.logger.WarnContext(ctx, "lookup failed, using default",
		"lookup", lookup,
		"store_id", summary.StoreID,
		"error", err,
	)
	s.metrics.LookupFailed(lookup)
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s lookup failed: %v", lookup, err))
}

// DedupIDs drops blanks and duplicates and returns the ids sorted.
func DedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

var successfulPaymentStatuses = map[string]bool{
	"success":    true,
	"successful": true,
	"paid":       true,
}

var placeholderPackageNames = map[string]bool{
	"":     true,
	"-":    true,
	"n/a":  true,
	"na":   true,
	"none": true,
	"null": true,
}

func IsSuccessfulPayment(status string) bool {
	return successfulPaymentStatuses[strings.ToLower(strings.TrimSpace(status))]
}

func IsPlaceholderPackage(name string) bool {
	return placeholderPackageNames[strings.ToLower(strings.TrimSpace(name))]
}

// SummarizePayments sums the net amount of successful payments, skipping
// nulls, and picks the package name of the most recent successful payment
// that has a real one.
func SummarizePayments(payments []domain.Payment) (decimal.Decimal, string) {
	successful := make([]domain.Payment, 0, len(payments))
	total := decimal.Zero
	for _, payment := range payments {
		if !IsSuccessfulPayment(payment.Status) {
			continue
		}
		successful = append(successful, payment)
		if payment.NetAmount != nil {
			total = total.Add(*payment.NetAmount)
		}
	}

	slices.SortStableFunc(successful, func(a, b domain.Payment) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		default:
			return b.CreatedAt.Compare(*a.CreatedAt)
		}
	})
	for _, payment := range successful {
		if !IsPlaceholderPackage(payment.PackageName) {
			return total, strings.TrimSpace(payment.PackageName)
		}
	}
	return total, ""
}

func ValidateStoreID(storeID string) error {
	if strings.TrimSpace(storeID) == "" {
		return fmt.Errorf("%w: store_id is required", store.ErrInvalidQuery)
	}
	return nil
}
