package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
)

// ListStoreOptions returns the store picker entries. Duplicate names get the
// first six characters of the store id appended so every label is unique.
func (s *Service) ListStoreOptions(ctx context.Context, limit int) ([]domain.StoreOption, error) {
	if limit < 1 || limit > s.storeListLimit {
		limit = s.storeListLimit
	}

	key := fmt.Sprintf("store_options:%d", limit)
	var cached []domain.StoreOption
	if s.cacheGet(ctx, "store_options", key, &cached) {
		return cached, nil
	}

	stores, err := s.repo.ListStores(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	options := BuildStoreOptions(stores)
	s.cacheSet(ctx, key, options)
	return options, nil
}

func BuildStoreOptions(stores []domain.Store) []domain.StoreOption {
	seen := make(map[string]bool, len(stores))
	options := make([]domain.StoreOption, 0, len(stores))
	for _, st := range stores {
		name := domain.FirstNonEmpty(st.Name, noStoreName)
		label := name
		if seen[label] {
			label = fmt.Sprintf("%s (%s)", name, shortID(st.ID))
		}
		seen[label] = true
		options = append(options, domain.StoreOption{
			StoreID:   st.ID,
			StoreName: name,
			Label:     label,
		})
	}
	return options
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6]
}

func (s *Service) DistinctStoreNames(ctx context.Context) ([]string, error) {
	var cached []string
	if s.cacheGet(ctx, "store_names", "store_names", &cached) {
		return cached, nil
	}

	names, err := s.repo.DistinctStoreNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct store names: %w", err)
	}
	s.cacheSet(ctx, "store_names", names)
	return names, nil
}

func (s *Service) RecentBills(ctx context.Context, storeID string, limit int) (domain.RecentBillsResponse, error) {
	storeID = strings.TrimSpace(storeID)
	if err := ValidateStoreID(storeID); err != nil {
		return domain.RecentBillsResponse{}, err
	}
	if limit < 1 {
		limit = defaultRecentBills
	}
	if limit > maxRecentBills {
		limit = maxRecentBills
	}

	bills, err := s.repo.ListRecentBills(ctx, storeID, limit)
	if err != nil {
		return domain.RecentBillsResponse{}, fmt.Errorf("recent bills: %w", err)
	}
	return domain.RecentBillsResponse{StoreID: storeID, Bills: bills}, nil
}

// DailyBillChart counts the bills created on date (YYYY-MM-DD in the
// configured timezone, today when blank) per store name.
func (s *Service) DailyBillChart(ctx context.Context, date string) (domain.DailyBillChart, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return domain.DailyBillChart{}, err
	}
	from, to := domain.DayBounds(day, s.loc)

	bills, err := s.repo.ListBillsCreatedBetween(ctx, from, to)
	if err != nil {
		return domain.DailyBillChart{}, fmt.Errorf("daily bills: %w", err)
	}

	names := make(map[string]string)
	countByName := make(map[string]int)
	for _, bill := range bills {
		name, ok := names[bill.StoreID]
		if !ok {
			name = s.storeNameFor(ctx, bill.StoreID)
			names[bill.StoreID] = name
		}
		countByName[name]++
	}

	return domain.DailyBillChart{
		Date:       from.Format("2006-01-02"),
		TotalBills: len(bills),
		Rows:       RankBillCounts(countByName),
	}, nil
}

func (s *Service) storeNameFor(ctx context.Context, storeID string) string {
	if strings.TrimSpace(storeID) == "" {
		return unknownStoreName
	}
	st, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "store name lookup failed", "store_id", storeID, "error", err)
			s.metrics.LookupFailed("chart_store")
		}
		return unknownStoreName
	}
	return domain.FirstNonEmpty(st.Name, noStoreName)
}

// RankBillCounts orders rows by count descending, then name ascending.
func RankBillCounts(countByName map[string]int) []domain.DailyBillCount {
	rows := make([]domain.DailyBillCount, 0, len(countByName))
	for name, count := range countByName {
		rows = append(rows, domain.DailyBillCount{StoreName: name, Bills: count})
	}
	slices.SortFunc(rows, func(a, b domain.DailyBillCount) int {
		if a.Bills != b.Bills {
			return b.Bills - a.Bills
		}
		return strings.Compare(a.StoreName, b.StoreName)
	})
	return rows
}

func (s *Service) parseDay(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return s.now(), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidQuery)
	}
	return parsed, nil
}

func (s *Service) cacheGet(ctx context.Context, family string, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		hit = false
	}
	s.metrics.CacheResult(family, hit)
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
