/*
breakdown.go - Gross premium to full monetary breakdown

PURPOSE:
  The one calculation every issued document depends on. Order of operations
  is fixed and every intermediate is rounded to 2 decimal places before the
  next step uses it, so two computations of the same inputs are always
  byte-identical.

CALCULATION ORDER:
  1. brokerageAmount  = round2(gross * brokeragePct / 100)
  2. vatOnBrokerage   = round2(brokerageAmount * vatPct / 100)
  3. agentCommission  = round2(gross * agentCommissionPct / 100)
  4. netBrokerage     = round2(brokerageAmount - agentCommission)
     VAT is NOT subtracted here; it is accounted for in netAmountDue. The
     asymmetry is intentional and load-bearing for downstream statements.
  5. levyAmount[k]    = round2(gross * levyRate[k] / 100), summed and rounded
  6. netAmountDue     = round2(gross - brokerageAmount - vatOnBrokerage - leviesTotal)
  7. insurerNetAmount = round2(gross - brokerageAmount - leviesTotal)

RANGE CHECKS:
  ComputeBreakdown trusts its inputs. Percentage range validation happens at
  the edge (ValidatePercent), matching the original system's layering.

SEE ALSO:
  - levies.go: Statutory levy table and tolerant parsing
  - errors.go: ValidatePercent's error types
*/
package finance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OPTIONS - Calculation inputs beyond gross and brokerage
// =============================================================================

// Options carries the remaining calculation inputs. Zero-valued fields take
// the statutory defaults.
type Options struct {
	// VATPct is the VAT rate applied to the brokerage amount. Nil takes the
	// statutory default of 7.5.
	VATPct *decimal.Decimal

	// AgentCommissionPct is the agent's cut of gross premium, default 0.
	AgentCommissionPct decimal.Decimal

	// LevyRates maps levy keys to percentage-of-gross rates. Nil takes the
	// statutory table; an explicit empty map means no levies.
	LevyRates map[string]decimal.Decimal
}

// DefaultVATPct is the statutory VAT rate applied to brokerage.
var DefaultVATPct = MustDecimal("7.5")

// DefaultLevyRates is the statutory levy table: percentage-of-gross charges
// payable to industry bodies, itemized separately from brokerage.
func DefaultLevyRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"niacom": MustDecimal("1.0"),
		"ncrib":  MustDecimal("0.5"),
		"ed_tax": MustDecimal("0.5"),
	}
}

func (o Options) vatPct() decimal.Decimal {
	if o.VATPct == nil {
		return DefaultVATPct
	}
	return *o.VATPct
}

func (o Options) levyRates() map[string]decimal.Decimal {
	if o.LevyRates == nil {
		return DefaultLevyRates()
	}
	return o.LevyRates
}

// =============================================================================
// BREAKDOWN - The monetary split persisted onto the owning record
// =============================================================================

// Breakdown is the full monetary split for one document. Levies are a keyed
// mapping when serialized, never a flat list.
type Breakdown struct {
	GrossPremium decimal.Decimal `json:"gross_premium"`

	BrokeragePct    decimal.Decimal `json:"brokerage_pct"`
	BrokerageAmount decimal.Decimal `json:"brokerage_amount"`

	VATPct         decimal.Decimal `json:"vat_pct"`
	VATOnBrokerage decimal.Decimal `json:"vat_on_brokerage"`

	AgentCommissionPct    decimal.Decimal `json:"agent_commission_pct"`
	AgentCommissionAmount decimal.Decimal `json:"agent_commission_amount"`

	NetBrokerage decimal.Decimal `json:"net_brokerage"`

	Levies      map[string]decimal.Decimal `json:"levies"`
	LeviesTotal decimal.Decimal            `json:"levies_total"`

	NetAmountDue     decimal.Decimal `json:"net_amount_due"`
	InsurerNetAmount decimal.Decimal `json:"insurer_net_amount"`
}

// ComputeBreakdown derives the full monetary breakdown from a gross premium.
// Pure and side-effect-free; callers validate percentage ranges beforehand.
func ComputeBreakdown(gross, brokeragePct decimal.Decimal, opts Options) Breakdown {
	vatPct := opts.vatPct()
	agentPct := opts.AgentCommissionPct
	rates := opts.levyRates()

	brokerageAmount := pctOf(gross, brokeragePct)
	vatOnBrokerage := pctOf(brokerageAmount, vatPct)
	agentCommission := pctOf(gross, agentPct)
	netBrokerage := round2(brokerageAmount.Sub(agentCommission))

	levies := make(map[string]decimal.Decimal, len(rates))
	leviesTotal := decimal.Zero
	for _, k := range sortedKeys(rates) {
		amount := pctOf(gross, rates[k])
		levies[k] = amount
		leviesTotal = leviesTotal.Add(amount)
	}
	leviesTotal = round2(leviesTotal)

	netAmountDue := round2(gross.Sub(brokerageAmount).Sub(vatOnBrokerage).Sub(leviesTotal))
	insurerNet := round2(gross.Sub(brokerageAmount).Sub(leviesTotal))

	return Breakdown{
		GrossPremium:          round2(gross),
		BrokeragePct:          brokeragePct,
		BrokerageAmount:       brokerageAmount,
		VATPct:                vatPct,
		VATOnBrokerage:        vatOnBrokerage,
		AgentCommissionPct:    agentPct,
		AgentCommissionAmount: agentCommission,
		NetBrokerage:          netBrokerage,
		Levies:                levies,
		LeviesTotal:           leviesTotal,
		NetAmountDue:          netAmountDue,
		InsurerNetAmount:      insurerNet,
	}
}

// ValidatePercent is the caller-side range guard. Rejects values outside
// [0, 100] before any calculation or persistence happens.
func ValidatePercent(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return &PercentageError{Field: field, Value: pct}
	}
	return nil
}

// sortedKeys keeps levy summation order deterministic across runs.
func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
