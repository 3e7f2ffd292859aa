/*
Package factory provides JSON to Go product-catalog conversion.

PURPOSE:
  Converts JSON product definitions into the Catalog the issuance workflow
  resolves terms from. This enables product configuration without code
  changes - operations can define LOB terms in JSON, and the factory creates
  the proper Go structs.

JSON SCHEMA:
  {
    "lobs": [
      {
        "code": "motor",
        "name": "Motor",
        "brokerage_pct": "12.5",
        "vat_pct": "7.5",
        "minimum_premium": "5000",
        "levy_rates": {"niacom": 1.0, "ncrib": 0.5, "ed_tax": 0.5},
        "sub_lobs": [
          {"code": "motor_comprehensive", "name": "Comprehensive",
           "minimum_premium": "25000", "brokerage_pct": "10"}
        ]
      }
    ]
  }

RESOLUTION RULES:
  - Sub-LOB values override LOB values field by field; unset sub-LOB fields
    fall through to the parent.
  - Unset LOB percentage fields take the statutory defaults from finance.
  - Numeric fields accept JSON numbers or numeric strings; levy rates go
    through finance.ParseLevyRates and keep its tolerance policy.

USAGE:
  catalog, err := factory.ParseCatalog(jsonString)
  terms, err := catalog.Resolve("motor", "motor_comprehensive")
  // terms.MinimumPremium == 25000

SEE ALSO:
  - finance/breakdown.go: Consumes the resolved percentages
  - issuance/service.go: Resolves terms per issued document
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meibl/brokerage-engine/finance"
)

// ErrUnknownProduct is returned when a (LOB, sub-LOB) lookup misses.
var ErrUnknownProduct = errors.New("unknown product")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of the product catalog.
type CatalogJSON struct {
	LOBs []LOBJSON `json:"lobs"`
}

// LOBJSON represents one line of business. Numeric fields accept JSON
// numbers or numeric strings, hence the loose typing.
type LOBJSON struct {
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	BrokeragePct   any            `json:"brokerage_pct,omitempty"`
	VATPct         any            `json:"vat_pct,omitempty"`
	MinimumPremium any            `json:"minimum_premium,omitempty"`
	LevyRates      map[string]any `json:"levy_rates,omitempty"`
	SubLOBs        []SubLOBJSON   `json:"sub_lobs,omitempty"`
}

// SubLOBJSON overrides parent terms at the sub-category level.
type SubLOBJSON struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	BrokeragePct   any    `json:"brokerage_pct,omitempty"`
	MinimumPremium any    `json:"minimum_premium,omitempty"`
}

// =============================================================================
// CATALOG - Resolved product terms
// =============================================================================

// ProductTerms are the effective defaults for one LOB or sub-LOB.
type ProductTerms struct {
	LOB            string
	SubLOB         string
	Name           string
	BrokeragePct   decimal.Decimal
	VATPct         decimal.Decimal
	MinimumPremium decimal.Decimal
	LevyRates      map[string]decimal.Decimal
}

// Catalog resolves (LOB, sub-LOB) lookups to effective terms.
type Catalog struct {
	lobs map[string]*lobEntry
}

type lobEntry struct {
	terms ProductTerms
	subs  map[string]ProductTerms
}

// ParseCatalog builds a Catalog from its JSON definition.
func ParseCatalog(jsonStr string) (*Catalog, error) {
	var cfg CatalogJSON
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if len(cfg.LOBs) == 0 {
		return nil, fmt.Errorf("catalog defines no lobs")
	}

	c := &Catalog{lobs: make(map[string]*lobEntry, len(cfg.LOBs))}
	for _, lj := range cfg.LOBs {
		if lj.Code == "" {
			return nil, fmt.Errorf("lob with empty code")
		}

		base := ProductTerms{
			LOB:            lj.Code,
			Name:           lj.Name,
			BrokeragePct:   numberOr(lj.BrokeragePct, finance.MustDecimal("10")),
			VATPct:         numberOr(lj.VATPct, finance.DefaultVATPct),
			MinimumPremium: numberOr(lj.MinimumPremium, decimal.Zero),
			LevyRates:      finance.DefaultLevyRates(),
		}
		if lj.LevyRates != nil {
			rates, err := finance.ParseLevyRates(lj.LevyRates)
			if err != nil {
				return nil, fmt.Errorf("lob %s: %w", lj.Code, err)
			}
			base.LevyRates = rates
		}

		entry := &lobEntry{terms: base, subs: make(map[string]ProductTerms, len(lj.SubLOBs))}
		for _, sj := range lj.SubLOBs {
			if sj.Code == "" {
				return nil, fmt.Errorf("lob %s: sub-lob with empty code", lj.Code)
			}
			sub := base
			sub.SubLOB = sj.Code
			if sj.Name != "" {
				sub.Name = sj.Name
			}
			if sj.BrokeragePct != nil {
				sub.BrokeragePct = numberOr(sj.BrokeragePct, sub.BrokeragePct)
			}
			if sj.MinimumPremium != nil {
				sub.MinimumPremium = numberOr(sj.MinimumPremium, sub.MinimumPremium)
			}
			entry.subs[sj.Code] = sub
		}
		c.lobs[lj.Code] = entry
	}
	return c, nil
}

// Resolve returns the effective terms for (lob, subLOB). Empty subLOB
// resolves to the LOB-level terms.
func (c *Catalog) Resolve(lob, subLOB string) (ProductTerms, error) {
	entry, ok := c.lobs[lob]
	if !ok {
		return ProductTerms{}, fmt.Errorf("%w: lob %q", ErrUnknownProduct, lob)
	}
	if subLOB == "" {
		return entry.terms, nil
	}
	sub, ok := entry.subs[subLOB]
	if !ok {
		return ProductTerms{}, fmt.Errorf("%w: sub-lob %q under lob %q", ErrUnknownProduct, subLOB, lob)
	}
	return sub, nil
}

// LOBs lists LOB-level terms for catalog listings.
func (c *Catalog) LOBs() []ProductTerms {
	out := make([]ProductTerms, 0, len(c.lobs))
	for _, e := range c.lobs {
		out = append(out, e.terms)
	}
	return out
}

// numberOr coerces a loosely typed numeric value, falling back to def when
// absent or invalid.
func numberOr(v any, def decimal.Decimal) decimal.Decimal {
	var s string
	switch val := v.(type) {
	case nil:
		return def
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		return decimal.NewFromFloat(val)
	default:
		return def
	}
	if s == "" {
		return def
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return d
}

// =============================================================================
// DEFAULT CATALOG - Built-in product table for dev and tests
// =============================================================================

// DefaultCatalogJSON is the built-in product table.
const DefaultCatalogJSON = `{
  "lobs": [
    {
      "code": "motor",
      "name": "Motor",
      "brokerage_pct": "12.5",
      "minimum_premium": "5000",
      "sub_lobs": [
        {"code": "motor_comprehensive", "name": "Motor Comprehensive", "minimum_premium": "25000", "brokerage_pct": "10"},
        {"code": "motor_third_party", "name": "Motor Third Party", "minimum_premium": "5000"}
      ]
    },
    {
      "code": "fire",
      "name": "Fire & Special Perils",
      "brokerage_pct": "15",
      "minimum_premium": "10000"
    },
    {
      "code": "marine",
      "name": "Marine Cargo",
      "brokerage_pct": "15",
      "minimum_premium": "15000",
      "sub_lobs": [
        {"code": "marine_hull", "name": "Marine Hull", "minimum_premium": "50000", "brokerage_pct": "12.5"}
      ]
    },
    {
      "code": "general_accident",
      "name": "General Accident",
      "brokerage_pct": "20",
      "minimum_premium": "2500"
    }
  ]
}`

// DefaultCatalog parses the built-in table. Panics only on a programming
// error in the constant above.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(DefaultCatalogJSON)
	if err != nil {
		panic(err)
	}
	return c
}
