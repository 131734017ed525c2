package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const NotAvailable = "not available"

type Store struct {
	ID        string     `json:"store_id"`
	Name      string     `json:"store_name"`
	TenantID  TenantID   `json:"tenant_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type StoreOption struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	Label     string `json:"label"`
}

type Organization struct {
	TenantID     TenantID `json:"tenant_id"`
	Name         string   `json:"name"`
	PhoneNumbers []string `json:"phone_numbers"`
	Phone        string   `json:"phone,omitempty"`
	ContactPhone string   `json:"contact_number,omitempty"`
	Mobile       string   `json:"mobile,omitempty"`
}

type Bill struct {
	ID        string         `json:"bill_id"`
	StoreID   string         `json:"store_id"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type AmountSource string

const (
	AmountSourceInvoice     AmountSource = "invoice_extraction"
	AmountSourceReceipt     AmountSource = "receipt_extraction"
	AmountSourceTransaction AmountSource = "transaction"
)

var AmountSources = []AmountSource{
	AmountSourceInvoice,
	AmountSourceReceipt,
	AmountSourceTransaction,
}

// AmountRecord carries the amount as stored; it may be a number, a numeric
// string, an empty string or nil.
type AmountRecord struct {
	BillID string `json:"bill_id"`
	Amount any    `json:"amount"`
}

type Wallet struct {
	TenantID            TenantID        `json:"tenant_id"`
	AvailableBalance    decimal.Decimal `json:"available_balance"`
	LifetimeConsumption decimal.Decimal `json:"lifetime_consumption"`
}

type Payment struct {
	StoreID     string           `json:"store_id"`
	TenantID    TenantID         `json:"tenant_id"`
	Status      string           `json:"status"`
	NetAmount   *decimal.Decimal `json:"net_amount,omitempty"`
	PackageName string           `json:"package_name"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
}

type StoreSummary struct {
	StoreID           string          `json:"store_id"`
	StoreName         string          `json:"store_name"`
	Found             bool            `json:"found"`
	OnboardDate       string          `json:"onboard_date"`
	OrganizationPhone string          `json:"organization_phone"`
	BillCount         int             `json:"bill_count"`
	TotalRevenue      int64           `json:"total_revenue"`
	WalletBalance     decimal.Decimal `json:"wallet_balance"`
	WalletConsumption decimal.Decimal `json:"wallet_consumption"`
	TodaysBillCount   int             `json:"todays_bill_count"`
	TotalPayment      decimal.Decimal `json:"total_payment"`
	PackageName       string          `json:"package_name"`
	Warnings          []string        `json:"warnings,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// EmptySummary is the summary reported when nothing about the store resolves.
func EmptySummary(storeID string) StoreSummary {
	return StoreSummary{
		StoreID:           storeID,
		OnboardDate:       NotAvailable,
		OrganizationPhone: NotAvailable,
		PackageName:       NotAvailable,
		WalletBalance:     decimal.Zero,
		WalletConsumption: decimal.Zero,
		TotalPayment:      decimal.Zero,
	}
}

type DailyBillCount struct {
	StoreName string `json:"store_name"`
	Bills     int    `json:"bills"`
}

type DailyBillChart struct {
	Date       string           `json:"date"`
	TotalBills int              `json:"total_bills"`
	Rows       []DailyBillCount `json:"rows"`
}

type RecentBillsResponse struct {
	StoreID string `json:"store_id"`
	Bills   []Bill `json:"bills"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)
