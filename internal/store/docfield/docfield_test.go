package docfield

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLookupAcrossDocumentShapes(t *testing.T) {
	doc := primitive.M{
		"storeName": "Toko A",
		"organization": primitive.D{
			{Key: "tenantId", Value: "t-1"},
		},
		"org": map[string]any{"tenantId": "t-2"},
	}

	assert.Equal(t, "Toko A", Lookup(doc, "storeName"))
	assert.Equal(t, "t-1", Lookup(doc, "organization.tenantId"))
	assert.Equal(t, "t-2", Lookup(doc, "org.tenantId"))
	assert.Nil(t, Lookup(doc, "org.missing"))
	assert.Nil(t, Lookup(doc, "storeName.deeper"))
	assert.Equal(t, "t-1", LookupAny(doc, "tenantId", "tenant_id", "organization.tenantId"))
}

func TestStringAndID(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("65f1c2a9b4d3e8f7a6b5c401")
	require.NoError(t, err)

	assert.Equal(t, "65f1c2a9b4d3e8f7a6b5c401", String(oid))
	assert.Equal(t, "", String(primitive.NilObjectID))
	assert.Equal(t, "12", String(float64(12)))
	assert.Equal(t, "12", String(int32(12)))
	assert.Equal(t, "abc", String(map[string]any{"$oid": "abc"}))
	assert.Equal(t, "", String([]any{"x"}))

	assert.Equal(t, "bill-1", ID(primitive.M{"_id": oid, "billId": "bill-1"}, "billId"))
	assert.Equal(t, oid.Hex(), ID(primitive.M{"_id": oid, "billId": ""}, "billId"))
}

func TestStrings(t *testing.T) {
	assert.Nil(t, Strings(nil))
	assert.Equal(t, []string{"0812"}, Strings("0812"))
	assert.Equal(t, []string{"a", "b"}, Strings(primitive.A{"a", "", "b", nil}))
	assert.Equal(t, []string{"x"}, Strings([]string{" ", "x"}))
	assert.Empty(t, Strings(primitive.A{}))
}

func TestTime(t *testing.T) {
	want := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, want, Time(primitive.NewDateTimeFromTime(want)).UTC())
	assert.Equal(t, want, *Time(want))
	assert.Equal(t, want, Time("2025-06-01T08:30:00Z").UTC())
	assert.Equal(t, want, Time(map[string]any{"$date": "2025-06-01T08:30:00Z"}).UTC())
	assert.Equal(t, want, Time(json.Number("1748766600000")).UTC())
	assert.Nil(t, Time("yesterday"))
	assert.Nil(t, Time(nil))
	assert.Nil(t, Time(time.Time{}))
}

func TestFlatten(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("65f1c2a9b4d3e8f7a6b5c401")
	require.NoError(t, err)
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	flat := Flatten(primitive.M{
		"_id":     oid,
		"storeId": map[string]any{"$oid": "65f1c2a9b4d3e8f7a6b5c402"},
		"meta":    primitive.M{"createdAt": primitive.NewDateTimeFromTime(at), "source": "app"},
	})

	assert.Equal(t, "65f1c2a9b4d3e8f7a6b5c401", flat["_id"])
	assert.Equal(t, "65f1c2a9b4d3e8f7a6b5c402", flat["storeId"])
	assert.Equal(t, "2025-06-01T08:30:00Z", flat["meta.createdAt"])
	assert.Equal(t, "app", flat["meta.source"])
}
