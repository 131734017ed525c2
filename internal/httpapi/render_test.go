package httpapi

import (
	"strings"
	"testing"
	"time"

	"storeinsight/backend/internal/domain"
)

func TestDailyChartToCSVQuotesNames(t *testing.T) {
	body, err := dailyChartToCSV(domain.DailyBillChart{
		Date: "2026-03-10",
		Rows: []domain.DailyBillCount{{StoreName: "Toko, Jaya", Bills: 3}},
	})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "date,store_name,bills\n2026-03-10,\"Toko, Jaya\",3\n"
	if body != want {
		t.Fatalf("expected %q, got %q", want, body)
	}
}

func TestDailyChartToSVGEscapesNames(t *testing.T) {
	svg := dailyChartToSVG(domain.DailyBillChart{
		Date:       "2026-03-10",
		TotalBills: 3,
		Rows: []domain.DailyBillCount{
			{StoreName: "<script>", Bills: 2},
			{StoreName: "Warung", Bills: 1},
		},
	})
	if strings.Contains(svg, "<script>") {
		t.Fatalf("expected store names to be escaped")
	}
	if strings.Count(svg, "<rect") != 2 {
		t.Fatalf("expected one bar per store")
	}

	empty := dailyChartToSVG(domain.DailyBillChart{Date: "2026-03-10"})
	if !strings.Contains(empty, "No bills recorded") {
		t.Fatalf("expected empty-state text")
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1,000", 150000: "150,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range cases {
		if got := groupThousands(in); got != want {
			t.Fatalf("groupThousands(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestBillTableUnionsFields(t *testing.T) {
	created := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	columns, rows := billTable([]domain.Bill{
		{ID: "b1", StoreID: "s1", CreatedAt: &created, Fields: map[string]any{"total": 10, "channel": "pos"}},
		{ID: "b2", StoreID: "s1", Fields: map[string]any{"note": nil}},
	})

	wantColumns := []string{"bill_id", "store_id", "created_at", "channel", "note", "total"}
	if strings.Join(columns, ",") != strings.Join(wantColumns, ",") {
		t.Fatalf("unexpected columns %v", columns)
	}
	if strings.Join(rows[0], ",") != "b1,s1,2026-03-10T08:00:00Z,pos,,10" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "b2,s1,,,," {
		t.Fatalf("unexpected second row %v", rows[1])
	}
}
