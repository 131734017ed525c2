package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
	"storeinsight/backend/internal/store/docfield"
)

// Tables maps each collection to the Postgres table mirroring it. Every
// table has a single jsonb column named doc holding the document as
// extended JSON.
type Tables struct {
	Stores             string
	Organizations      string
	Wallets            string
	Payments           string
	Bills              string
	InvoiceExtractions string
	ReceiptExtractions string
	Transactions       string
}

func DefaultTables() Tables {
	return Tables{
		Stores:             "store_details",
		Organizations:      "organization_details",
		Wallets:            "wallet_credits",
		Payments:           "payment_details",
		Bills:              "bill_requests",
		InvoiceExtractions: "invoice_extractions",
		ReceiptExtractions: "receipt_extractions",
		Transactions:       "transaction_details",
	}
}

func (t Tables) amountTable(source domain.AmountSource) (string, bool) {
	switch source {
	case domain.AmountSourceInvoice:
		return t.InvoiceExtractions, true
	case domain.AmountSourceReceipt:
		return t.ReceiptExtractions, true
	case domain.AmountSourceTransaction:
		return t.Transactions, true
	default:
		return "", false
	}
}

type Store struct {
	db     *sql.DB
	tables Tables
}

func New(ctx context.Context, databaseURL string, tables Tables) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, tables: tables}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// idExpr extracts an identifier stored either as a plain string or as
// {"$oid": "..."}.
func idExpr(field string) string {
	return fmt.Sprintf("COALESCE(doc->'%[1]s'->>'$oid', doc->>'%[1]s')", field)
}

func (s *Store) ListStores(ctx context.Context, limit int) ([]domain.Store, error) {
	docs, err := s.queryDocs(ctx, fmt.Sprintf(`
		SELECT doc FROM %s
		ORDER BY %s
		LIMIT NULLIF($1::int, 0)
	`, s.tables.Stores, idExpr("_id")), limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Store, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToStore(doc))
	}
	return out, nil
}

func (s *Store) DistinctStoreNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT doc->>'storeName'
		FROM %s
		WHERE COALESCE(doc->>'storeName', '') <> ''
	`, s.tables.Stores))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0, 64)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	doc, err := s.queryDoc(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE %s = $1 LIMIT 1`, s.tables.Stores, idExpr("_id")), storeID)
	if err != nil {
		return nil, err
	}
	st := docfield.ToStore(doc)
	return &st, nil
}

func (s *Store) FindStoreByName(ctx context.Context, name string) (*domain.Store, error) {
	doc, err := s.queryDoc(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE doc->>'storeName' = $1 LIMIT 1`, s.tables.Stores), name)
	if err != nil {
		return nil, err
	}
	st := docfield.ToStore(doc)
	return &st, nil
}

func (s *Store) FindOrganizationByTenant(ctx context.Context, tenantID domain.TenantID) (*domain.Organization, error) {
	if !tenantID.Valid() {
		return nil, store.ErrNotFound
	}
	doc, err := s.queryDoc(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE %s = $1 LIMIT 1`, s.tables.Organizations, idExpr("tenantId")), tenantID.String())
	if err != nil {
		return nil, err
	}
	org := docfield.ToOrganization(doc)
	return &org, nil
}

func (s *Store) FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error) {
	if name == "" {
		return nil, store.ErrNotFound
	}
	doc, err := s.queryDoc(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE doc->>'name' = $1 LIMIT 1`, s.tables.Organizations), name)
	if err != nil {
		return nil, err
	}
	org := docfield.ToOrganization(doc)
	return &org, nil
}

func (s *Store) ListBillIDs(ctx context.Context, storeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), %s, '')
		FROM %s
		WHERE %s = $1
	`, idExpr(docfield.BillRefField), idExpr("_id"), s.tables.Bills, idExpr("storeId")), storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, 64)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// Timestamps are filtered in Go because the mirror keeps createdAt in
// whatever shape the source document had.
func (s *Store) CountBillsCreatedBetween(ctx context.Context, storeID string, from time.Time, to time.Time) (int, error) {
	docs, err := s.queryDocs(ctx, fmt.Sprintf(`
		SELECT jsonb_build_object('createdAt', doc->'createdAt')
		FROM %s
		WHERE %s = $1
	`, s.tables.Bills, idExpr("storeId")), storeID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, doc := range docs {
		if ts := docfield.Time(docfield.Lookup(doc, "createdAt")); ts != nil && domain.WithinDay(*ts, from, to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListBillsCreatedBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Bill, error) {
	docs, err := s.queryDocs(ctx, fmt.Sprintf(`
		SELECT jsonb_build_object('_id', doc->'_id', 'billId', doc->'billId', 'storeId', doc->'storeId', 'createdAt', doc->'createdAt')
		FROM %s
		WHERE doc ? 'createdAt'
	`, s.tables.Bills))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Bill, 0, len(docs))
	for _, doc := range docs {
		bill := docfield.ToBill(doc, false)
		if bill.CreatedAt != nil && domain.WithinDay(*bill.CreatedAt, from, to) {
			out = append(out, bill)
		}
	}
	return out, nil
}

func (s *Store) ListRecentBills(ctx context.Context, storeID string, limit int) ([]domain.Bill, error) {
	docs, err := s.queryDocs(ctx, fmt.Sprintf(`
		SELECT doc FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT NULLIF($2::int, 0)
	`, s.tables.Bills, idExpr("storeId"), idExpr("_id")), storeID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Bill, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToBill(doc, true))
	}
	return out, nil
}

func (s *Store) ListAmounts(ctx context.Context, source domain.AmountSource, billIDs []string) ([]domain.AmountRecord, error) {
	table, ok := s.tables.amountTable(source)
	if !ok {
		return nil, fmt.Errorf("%w: unknown amount source %q", store.ErrInvalidQuery, source)
	}
	if len(billIDs) == 0 {
		return []domain.AmountRecord{}, nil
	}

	docs, err := s.queryDocs(ctx, fmt.Sprintf(`
		SELECT doc FROM %s
		WHERE %s = ANY($1)
	`, table, idExpr(docfield.BillRefField)), billIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AmountRecord, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToAmountRecord(doc, source))
	}
	return out, nil
}

func (s *Store) GetWallet(ctx context.Context, tenantID domain.TenantID) (*domain.Wallet, error) {
	if !tenantID.Valid() {
		return nil, store.ErrNotFound
	}
	doc, err := s.queryDoc(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE %s = $1 LIMIT 1`, s.tables.Wallets, idExpr("tenantId")), tenantID.String())
	if err != nil {
		return nil, err
	}
	wallet := docfield.ToWallet(doc, tenantID)
	return &wallet, nil
}

func (s *Store) ListPayments(ctx context.Context, storeID string) ([]domain.Payment, error) {
	docs, err := s.queryDocs(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE %s = $1`, s.tables.Payments, idExpr("storeId")), storeID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Payment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToPayment(doc))
	}
	return out, nil
}

func (s *Store) queryDoc(ctx context.Context, query string, args ...any) (map[string]any, error) {
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return decodeDoc(raw)
}

func (s *Store) queryDocs(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]map[string]any, 0, 64)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// decodeDoc keeps numbers as json.Number so amounts are not rounded through
// float64 before they reach decimal parsing.
func decodeDoc(raw []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var _ store.Repository = (*Store)(nil)
