package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TenantID is an optional tenant reference. The zero value means the
// document carried no usable reference.
type TenantID struct {
	value string
}

func NewTenantID(value string) TenantID {
	return TenantID{value: strings.TrimSpace(value)}
}

func (t TenantID) Valid() bool {
	return t.value != ""
}

func (t TenantID) String() string {
	return t.value
}

// IsObjectIDHex reports whether the reference looks like a 12-byte document
// id rendered as hex, so lookups may also try the binary form.
func (t TenantID) IsObjectIDHex() bool {
	if len(t.value) != 24 {
		return false
	}
	_, err := hex.DecodeString(t.value)
	return err == nil
}

func (t TenantID) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

func (t *TenantID) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*t = TenantID{}
		return nil
	}
	*t = NewTenantID(*raw)
	return nil
}

type hexer interface {
	Hex() string
}

const zeroObjectIDHex = "000000000000000000000000"

// NormalizeTenantID returns the first candidate that yields a usable
// reference. Candidates may be strings, document ids, integers or extended
// JSON ids ({"$oid": "..."}); anything else is skipped.
func NormalizeTenantID(candidates ...any) TenantID {
	for _, candidate := range candidates {
		if id := normalizeOne(candidate); id.Valid() {
			return id
		}
	}
	return TenantID{}
}

func normalizeOne(candidate any) TenantID {
	switch v := candidate.(type) {
	case nil:
		return TenantID{}
	case TenantID:
		return v
	case string:
		return NewTenantID(v)
	case *string:
		if v == nil {
			return TenantID{}
		}
		return NewTenantID(*v)
	case hexer:
		h := v.Hex()
		if h == zeroObjectIDHex {
			return TenantID{}
		}
		return NewTenantID(h)
	case int:
		return NewTenantID(strconv.Itoa(v))
	case int32:
		return NewTenantID(strconv.FormatInt(int64(v), 10))
	case int64:
		return NewTenantID(strconv.FormatInt(v, 10))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return TenantID{}
		}
		return NewTenantID(strconv.FormatInt(int64(v), 10))
	case map[string]any:
		if oid, ok := v["$oid"]; ok {
			return normalizeOne(oid)
		}
		return TenantID{}
	case fmt.Stringer:
		return NewTenantID(v.String())
	default:
		return TenantID{}
	}
}
