/*
levies.go - Tolerant coercion of levy-rate input

PURPOSE:
  Levy configuration arrives from JSON documents and catalog rows as loosely
  typed values. This parser coerces a keyed mapping of anything-numeric-ish
  into decimal rates.

TOLERANCE POLICY:
  - A value that cannot be coerced (bad string, nil, nested object) becomes
    a 0 rate for that key; the rest of the mapping still parses.
  - A levies input that is not a keyed mapping at all is ErrMalformedLevies
    and aborts the computation.

SEE ALSO:
  - breakdown.go: Consumes the parsed rates
*/
package finance

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseLevyRates coerces a loosely typed levies value into a rate mapping.
// Accepted per-key value types: float64, int, json.Number, numeric string,
// decimal.Decimal. Anything else coerces to 0 for that key only.
func ParseLevyRates(input any) (map[string]decimal.Decimal, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: nil input", ErrMalformedLevies)
	}

	raw, ok := asStringKeyedMap(input)
	if !ok {
		return nil, fmt.Errorf("%w: expected a keyed mapping, got %T", ErrMalformedLevies, input)
	}

	rates := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		rates[k] = coerceRate(v)
	}
	return rates, nil
}

func asStringKeyedMap(input any) (map[string]any, bool) {
	switch m := input.(type) {
	case map[string]any:
		return m, true
	case map[string]decimal.Decimal:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]float64:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}

// coerceRate maps one levy value to a decimal rate, defaulting to 0 on
// anything unparseable.
func coerceRate(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}
