package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"storeinsight/backend/internal/domain"
)

const (
	chartWidth      = 760
	chartLabelWidth = 220
	chartBarSpace   = 460
	chartRowHeight  = 28
	chartTopPadding = 36
)

func dailyChartToCSV(chart domain.DailyBillChart) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"date", "store_name", "bills"})
	for _, row := range chart.Rows {
		_ = writer.Write([]string{chart.Date, row.StoreName, strconv.Itoa(row.Bills)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dailyChartToSVG draws one horizontal bar per store, longest first.
func dailyChartToSVG(chart domain.DailyBillChart) string {
	maxBills := 0
	for _, row := range chart.Rows {
		if row.Bills > maxBills {
			maxBills = row.Bills
		}
	}

	rows := len(chart.Rows)
	if rows == 0 {
		rows = 1
	}
	height := chartTopPadding + rows*chartRowHeight + 12

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" role="img" aria-label="Bills per store">`,
		chartWidth, height, chartWidth, height)
	fmt.Fprintf(&b, `<text x="0" y="20" font-family="sans-serif" font-size="14" font-weight="bold">Bills on %s (total %d)</text>`,
		template.HTMLEscapeString(chart.Date), chart.TotalBills)

	if len(chart.Rows) == 0 {
		fmt.Fprintf(&b, `<text x="0" y="%d" font-family="sans-serif" font-size="13" fill="#666">No bills recorded on this day.</text>`,
			chartTopPadding+18)
		b.WriteString(`</svg>`)
		return b.String()
	}

	for i, row := range chart.Rows {
		y := chartTopPadding + i*chartRowHeight
		width := 0
		if maxBills > 0 {
			width = row.Bills * chartBarSpace / maxBills
		}
		if width < 2 {
			width = 2
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="12" text-anchor="end">%s</text>`,
			chartLabelWidth-8, y+17, template.HTMLEscapeString(truncateLabel(row.StoreName, 32)))
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="#2f6fde"><title>%s: %d</title></rect>`,
			chartLabelWidth, y+4, width, chartRowHeight-8, template.HTMLEscapeString(row.StoreName), row.Bills)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="12">%d</text>`,
			chartLabelWidth+width+6, y+17, row.Bills)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max-1]) + "…"
}

// groupThousands renders 1234567 as 1,234,567.
func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

var loginHTMLTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Store Insight - Sign in</title>
  <style>
    body { font-family: sans-serif; margin: 48px auto; max-width: 360px; }
    label { display: block; margin-top: 12px; font-size: 13px; }
    input { width: 100%; padding: 6px; box-sizing: border-box; }
    button { margin-top: 16px; padding: 8px 16px; }
    .error { color: #b00020; }
  </style>
</head>
<body>
  <h2>Store Insight</h2>
  {{if .}}<p class="error">{{.}}</p>{{end}}
  <form method="post" action="/login">
    <label>Username <input name="username" autocomplete="username" required /></label>
    <label>Password <input name="password" type="password" autocomplete="current-password" required /></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`))

func renderLoginPage(w http.ResponseWriter, status int, message string) {
	renderHTML(w, status, loginHTMLTmpl, message)
}

type metricCard struct {
	Label string
	Value string
}

type dashboardPage struct {
	Actor        domain.Actor
	Options      []domain.StoreOption
	Names        []string
	SelectedID   string
	SelectedName string
	Date         string
	Summary      *domain.StoreSummary
	Cards        []metricCard
	ChartSVG     template.HTML
	ShowRecords  bool
	Columns      []string
	Rows         [][]string
	Errors       []string
}

func summaryCards(summary domain.StoreSummary) []metricCard {
	return []metricCard{
		{Label: "Store", Value: domain.OrNotAvailable(summary.StoreName)},
		{Label: "Onboard date", Value: summary.OnboardDate},
		{Label: "Organization phone", Value: summary.OrganizationPhone},
		{Label: "Bills", Value: groupThousands(int64(summary.BillCount))},
		{Label: "Bills today", Value: groupThousands(int64(summary.TodaysBillCount))},
		{Label: "Total revenue", Value: groupThousands(summary.TotalRevenue)},
		{Label: "Wallet balance", Value: summary.WalletBalance.StringFixed(2)},
		{Label: "Wallet consumption", Value: summary.WalletConsumption.StringFixed(2)},
		{Label: "Total payment", Value: summary.TotalPayment.StringFixed(2)},
		{Label: "Package", Value: summary.PackageName},
	}
}

var dashboardHTMLTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Store Insight{{if .Summary}} - {{.Summary.StoreName}}{{end}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    header { display: flex; justify-content: space-between; align-items: baseline; }
    form.picker { display: flex; gap: 8px; flex-wrap: wrap; align-items: end; margin: 12px 0; }
    form.picker label { font-size: 12px; display: flex; flex-direction: column; }
    .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 12px; margin: 16px 0; }
    .card { border: 1px solid #ddd; border-radius: 6px; padding: 12px; }
    .card .label { font-size: 12px; color: #666; }
    .card .value { font-size: 20px; margin-top: 4px; }
    .warning { color: #8a5300; font-size: 13px; }
    .error { color: #b00020; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 12px; text-align: left; vertical-align: top; }
  </style>
</head>
<body>
  <header>
    <h2>Store Insight</h2>
    <span>{{.Actor.Username}} ({{.Actor.Role}}) | <a href="/logout">Sign out</a></span>
  </header>

  <form class="picker" method="get" action="/dashboard">
    <label>Store
      <select name="store_id">
        <option value="">Select a store</option>
        {{range .Options}}<option value="{{.StoreID}}"{{if eq .StoreID $.SelectedID}} selected{{end}}>{{.Label}}</option>{{end}}
      </select>
    </label>
    <label>or store name
      <input name="store_name" list="store-names" value="{{.SelectedName}}" />
      <datalist id="store-names">{{range .Names}}<option value="{{.}}"></option>{{end}}</datalist>
    </label>
    <label>Chart date
      <input name="date" type="date" value="{{.Date}}" />
    </label>
    <button type="submit">Show</button>
  </form>

  {{range .Errors}}<p class="error">{{.}}</p>{{end}}

  {{with .Summary}}
    {{if not .Found}}<p class="warning">Store not found; showing defaults.</p>{{end}}
    <div class="cards">
      {{range $.Cards}}<div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>{{end}}
    </div>
    {{range .Warnings}}<p class="warning">{{.}}</p>{{end}}
  {{end}}

  <h3>Bills per store</h3>
  {{.ChartSVG}}

  {{if .ShowRecords}}
  <h3>Recent bills</h3>
  {{if .Rows}}
  <table>
    <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
  </table>
  {{else}}<p>No bills for this store.</p>{{end}}
  {{end}}
</body>
</html>
`))

func renderHTML(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
