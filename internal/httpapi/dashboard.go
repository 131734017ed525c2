package httpapi

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/service"
	"storeinsight/backend/internal/store"
)

const dashboardRecentBills = 50

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	ctx := r.Context()
	actor, _ := service.ActorFromContext(ctx)
	query := r.URL.Query()
	page := dashboardPage{
		Actor:        actor,
		SelectedID:   strings.TrimSpace(query.Get("store_id")),
		SelectedName: strings.TrimSpace(query.Get("store_name")),
		Date:         strings.TrimSpace(query.Get("date")),
	}

	options, err := a.service.ListStoreOptions(ctx, 0)
	if err != nil {
		a.logger.ErrorContext(ctx, "dashboard store list failed", "error", err)
		page.Errors = append(page.Errors, "Store list is unavailable right now.")
	}
	page.Options = options

	names, err := a.service.DistinctStoreNames(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "dashboard store names failed", "error", err)
	}
	page.Names = names

	if page.SelectedID != "" || page.SelectedName != "" {
		summary, err := a.summaryFor(r)
		if err != nil {
			page.Errors = append(page.Errors, dashboardError(err))
		} else {
			page.Summary = &summary
			page.Cards = summaryCards(summary)
		}
	}

	chart, err := a.service.DailyBillChart(ctx, page.Date)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidQuery) {
			a.logger.ErrorContext(ctx, "dashboard chart failed", "error", err)
		}
		page.Errors = append(page.Errors, dashboardError(err))
	} else {
		page.Date = chart.Date
		// The SVG is assembled from escaped values only.
		page.ChartSVG = template.HTML(dailyChartToSVG(chart))
	}

	if actor.Role == domain.RoleAdmin && page.Summary != nil && page.Summary.Found {
		page.ShowRecords = true
		recent, err := a.service.RecentBills(ctx, page.Summary.StoreID, dashboardRecentBills)
		if err != nil {
			a.logger.ErrorContext(ctx, "dashboard recent bills failed", "error", err)
			page.Errors = append(page.Errors, "Recent bills are unavailable right now.")
		} else {
			page.Columns, page.Rows = billTable(recent.Bills)
		}
	}

	renderHTML(w, http.StatusOK, dashboardHTMLTmpl, page)
}

func dashboardError(err error) string {
	if errors.Is(err, store.ErrInvalidQuery) {
		return err.Error()
	}
	return "Something went wrong while loading this section."
}

var billBaseColumns = []string{"bill_id", "store_id", "created_at"}

// billTable lays bills out as rows; columns are the fixed bill fields followed
// by every raw field seen, in name order.
func billTable(bills []domain.Bill) ([]string, [][]string) {
	fieldSet := make(map[string]bool)
	for _, bill := range bills {
		for key := range bill.Fields {
			fieldSet[key] = true
		}
	}
	extra := make([]string, 0, len(fieldSet))
	for key := range fieldSet {
		extra = append(extra, key)
	}
	sort.Strings(extra)

	columns := append(append([]string{}, billBaseColumns...), extra...)
	rows := make([][]string, 0, len(bills))
	for _, bill := range bills {
		created := ""
		if bill.CreatedAt != nil {
			created = bill.CreatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{bill.ID, bill.StoreID, created}
		for _, key := range extra {
			row = append(row, cellText(bill.Fields[key]))
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
