package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a stored amount into a decimal. Missing, null,
// empty-string and unparsable values count as zero.
func ParseAmount(raw any) decimal.Decimal {
	amount, _ := parseAmount(raw)
	return amount
}

// ParseOptionalAmount is ParseAmount for fields where null must stay
// distinguishable from zero.
func ParseOptionalAmount(raw any) *decimal.Decimal {
	amount, ok := parseAmount(raw)
	if !ok {
		return nil
	}
	return &amount
}

func parseAmount(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return parseAmount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	case map[string]any:
		for _, key := range []string{"$numberDecimal", "$numberDouble", "$numberLong", "$numberInt"} {
			if inner, ok := v[key]; ok {
				return parseAmount(inner)
			}
		}
		return decimal.Zero, false
	case fmt.Stringer:
		return parseAmountString(v.String())
	default:
		return decimal.Zero, false
	}
}

func parseAmountString(raw string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// SumAmounts adds up record amounts; unusable amounts contribute zero.
func SumAmounts(records []AmountRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(ParseAmount(record.Amount))
	}
	return total
}

func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
