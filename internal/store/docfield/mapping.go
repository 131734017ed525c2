package docfield

import "storeinsight/backend/internal/domain"

// BillRefField links bills and the amount collections.
const BillRefField = "billId"

// TenantPaths lists where store documents keep their tenant reference, in
// lookup order.
var TenantPaths = []string{"tenantId", "tenant_id", "organization.tenantId", "org.tenantId"}

// AmountField is the numeric field summed for each amount source.
var AmountField = map[domain.AmountSource]string{
	domain.AmountSourceInvoice:     "totalAmount",
	domain.AmountSourceReceipt:     "totalAmount",
	domain.AmountSourceTransaction: "amount",
}

func ToStore(doc any) domain.Store {
	candidates := make([]any, 0, len(TenantPaths))
	for _, path := range TenantPaths {
		candidates = append(candidates, Lookup(doc, path))
	}
	return domain.Store{
		ID:        String(Lookup(doc, "_id")),
		Name:      String(Lookup(doc, "storeName")),
		TenantID:  domain.NormalizeTenantID(candidates...),
		CreatedAt: Time(Lookup(doc, "createdAt")),
	}
}

func ToOrganization(doc any) domain.Organization {
	return domain.Organization{
		TenantID:     domain.NormalizeTenantID(Lookup(doc, "tenantId")),
		Name:         String(Lookup(doc, "name")),
		PhoneNumbers: Strings(LookupAny(doc, "phoneNumbers", "phoneNumber")),
		Phone:        String(Lookup(doc, "phone")),
		ContactPhone: String(Lookup(doc, "contactNumber")),
		Mobile:       String(Lookup(doc, "mobile")),
	}
}

// ToBill maps a bill document; withFields keeps the flattened raw document
// for display.
func ToBill(doc any, withFields bool) domain.Bill {
	bill := domain.Bill{
		ID:        ID(doc, BillRefField),
		StoreID:   String(Lookup(doc, "storeId")),
		CreatedAt: Time(Lookup(doc, "createdAt")),
	}
	if withFields {
		bill.Fields = Flatten(doc)
	}
	return bill
}

func ToAmountRecord(doc any, source domain.AmountSource) domain.AmountRecord {
	return domain.AmountRecord{
		BillID: String(Lookup(doc, BillRefField)),
		Amount: Lookup(doc, AmountField[source]),
	}
}

func ToWallet(doc any, tenantID domain.TenantID) domain.Wallet {
	return domain.Wallet{
		TenantID:            tenantID,
		AvailableBalance:    domain.ParseAmount(Lookup(doc, "availableBalance")),
		LifetimeConsumption: domain.ParseAmount(Lookup(doc, "lifetimeConsumption")),
	}
}

func ToPayment(doc any) domain.Payment {
	return domain.Payment{
		StoreID:     String(Lookup(doc, "storeId")),
		TenantID:    domain.NormalizeTenantID(Lookup(doc, "tenantId")),
		Status:      String(Lookup(doc, "status")),
		NetAmount:   domain.ParseOptionalAmount(Lookup(doc, "netAmount")),
		PackageName: String(Lookup(doc, "packageName")),
		CreatedAt:   Time(Lookup(doc, "createdAt")),
	}
}
