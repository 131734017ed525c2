package mongodb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storeinsight/backend/internal/domain"
	"storeinsight/backend/internal/store"
	"storeinsight/backend/internal/store/docfield"
)

// Collections names the databases and collections the dashboard reads.
type Collections struct {
	RetailDB           string
	BillsDB            string
	Stores             string
	Organizations      string
	Wallets            string
	Payments           string
	Bills              string
	InvoiceExtractions string
	ReceiptExtractions string
	Transactions       string
}

func DefaultCollections() Collections {
	return Collections{
		RetailDB:           "apeirosretail",
		BillsDB:            "apeirosretaildataprocessing",
		Stores:             "storeDetails",
		Organizations:      "organizationDetails",
		Wallets:            "walletCredits",
		Payments:           "paymentDetails",
		Bills:              "billRequest",
		InvoiceExtractions: "invoiceExtraction",
		ReceiptExtractions: "receiptExtraction",
		Transactions:       "transactionDetails",
	}
}

type Store struct {
	client *mongo.Client

	stores        *mongo.Collection
	organizations *mongo.Collection
	wallets       *mongo.Collection
	payments      *mongo.Collection
	bills         *mongo.Collection
	amounts       map[domain.AmountSource]*mongo.Collection
}

func New(ctx context.Context, uri string, cols Collections) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetAppName("storeinsight"))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	retail := client.Database(cols.RetailDB)
	bills := client.Database(cols.BillsDB)
	return &Store{
		client:        client,
		stores:        retail.Collection(cols.Stores),
		organizations: retail.Collection(cols.Organizations),
		wallets:       retail.Collection(cols.Wallets),
		payments:      retail.Collection(cols.Payments),
		bills:         bills.Collection(cols.Bills),
		amounts: map[domain.AmountSource]*mongo.Collection{
			domain.AmountSourceInvoice:     bills.Collection(cols.InvoiceExtractions),
			domain.AmountSourceReceipt:     bills.Collection(cols.ReceiptExtractions),
			domain.AmountSourceTransaction: bills.Collection(cols.Transactions),
		},
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) ListStores(ctx context.Context, limit int) ([]domain.Store, error) {
	opts := options.Find().SetProjection(storeProjection())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.stores.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Store, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToStore(doc))
	}
	return out, nil
}

func (s *Store) DistinctStoreNames(ctx context.Context) ([]string, error) {
	values, err := s.stores.Distinct(ctx, "storeName", bson.D{})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for _, value := range values {
		if name := docfield.String(value); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (s *Store) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	if storeID == "" {
		return nil, store.ErrNotFound
	}
	var doc bson.M
	err := s.stores.FindOne(ctx, bson.M{"_id": bson.M{"$in": idCandidates(storeID)}}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	st := docfield.ToStore(doc)
	return &st, nil
}

func (s *Store) FindStoreByName(ctx context.Context, name string) (*domain.Store, error) {
	var doc bson.M
	err := s.stores.FindOne(ctx, bson.M{"storeName": name}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	st := docfield.ToStore(doc)
	return &st, nil
}

func (s *Store) FindOrganizationByTenant(ctx context.Context, tenantID domain.TenantID) (*domain.Organization, error) {
	if !tenantID.Valid() {
		return nil, store.ErrNotFound
	}
	var doc bson.M
	err := s.organizations.FindOne(ctx, bson.M{"tenantId": bson.M{"$in": tenantCandidates(tenantID)}}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	org := docfield.ToOrganization(doc)
	return &org, nil
}

func (s *Store) FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error) {
	if name == "" {
		return nil, store.ErrNotFound
	}
	var doc bson.M
	err := s.organizations.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	org := docfield.ToOrganization(doc)
	return &org, nil
}

func (s *Store) ListBillIDs(ctx context.Context, storeID string) ([]string, error) {
	cursor, err := s.bills.Find(ctx, storeFilter(storeID), options.Find().SetProjection(bson.M{"_id": 1, docfield.BillRefField: 1}))
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id := docfield.ID(doc, docfield.BillRefField); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) CountBillsCreatedBetween(ctx context.Context, storeID string, from time.Time, to time.Time) (int, error) {
	filter := storeFilter(storeID)
	filter["createdAt"] = bson.M{"$gte": from, "$lt": to}
	count, err := s.bills.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) ListBillsCreatedBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Bill, error) {
	cursor, err := s.bills.Find(ctx,
		bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}},
		options.Find().SetProjection(bson.M{"_id": 1, docfield.BillRefField: 1, "storeId": 1, "createdAt": 1}),
	)
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Bill, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToBill(doc, false))
	}
	return out, nil
}

func (s *Store) ListRecentBills(ctx context.Context, storeID string, limit int) ([]domain.Bill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.bills.Find(ctx, storeFilter(storeID), opts)
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Bill, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToBill(doc, true))
	}
	return out, nil
}

func (s *Store) ListAmounts(ctx context.Context, source domain.AmountSource, billIDs []string) ([]domain.AmountRecord, error) {
	coll, ok := s.amounts[source]
	if !ok {
		return nil, fmt.Errorf("%w: unknown amount source %q", store.ErrInvalidQuery, source)
	}
	if len(billIDs) == 0 {
		return []domain.AmountRecord{}, nil
	}

	field := docfield.AmountField[source]
	refs := make([]any, 0, len(billIDs)*2)
	for _, id := range billIDs {
		refs = append(refs, idCandidates(id)...)
	}
	cursor, err := coll.Find(ctx,
		bson.M{docfield.BillRefField: bson.M{"$in": refs}},
		options.Find().SetProjection(bson.M{docfield.BillRefField: 1, field: 1}),
	)
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
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
	var doc bson.M
	err := s.wallets.FindOne(ctx, bson.M{"tenantId": bson.M{"$in": tenantCandidates(tenantID)}}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	wallet := docfield.ToWallet(doc, tenantID)
	return &wallet, nil
}

func (s *Store) ListPayments(ctx context.Context, storeID string) ([]domain.Payment, error) {
	cursor, err := s.payments.Find(ctx, storeFilter(storeID))
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docfield.ToPayment(doc))
	}
	return out, nil
}

func storeProjection() bson.M {
	projection := bson.M{"_id": 1, "storeName": 1, "createdAt": 1}
	for _, path := range docfield.TenantPaths {
		projection[path] = 1
	}
	return projection
}

// storeFilter matches store references kept either as ObjectID or as the
// hex string.
func storeFilter(storeID string) bson.M {
	return bson.M{"storeId": bson.M{"$in": idCandidates(storeID)}}
}

func idCandidates(id string) []any {
	candidates := []any{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		candidates = append([]any{oid}, candidates...)
	}
	return candidates
}

func tenantCandidates(tenantID domain.TenantID) []any {
	candidates := idCandidates(tenantID.String())
	if n, err := strconv.ParseInt(tenantID.String(), 10, 64); err == nil {
		candidates = append(candidates, n)
	}
	return candidates
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

var _ store.Repository = (*Store)(nil)
