// Package pricing maps detected items to a cost estimate using a read-only
// pricing table. Unknown labels degrade the estimate to a partial result
// instead of failing it.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/yogitha-jain/interio-ai/pkg/errs"
	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// Estimator prices detected or suggested items against a table.
type Estimator struct {
	table            *Table
	installationRate decimal.Decimal
}

// New creates an Estimator over the given table. A nil table falls back to
// the built-in price list. installationRate is the delivery and installation
// surcharge as a fraction of the subtotal.
func New(table *Table, installationRate float64) *Estimator {
	if table == nil {
		table = DefaultTable()
	}
	if installationRate < 0 {
		installationRate = 0
	}
	return &Estimator{
		table:            table,
		installationRate: decimal.NewFromFloat(installationRate),
	}
}

// item is an internal pricing input: a label plus the object it came from.
type item struct {
	objectIndex int
	label       string
}

// EstimateObjects prices detected objects. Each object becomes one line item
// with quantity 1, referenced by its index.
func (e *Estimator) EstimateObjects(objects []types.DetectedObject, tier string) *types.CostBreakdown {
	items := make([]item, len(objects))
	for i, obj := range objects {
		items[i] = item{objectIndex: i, label: obj.Label}
	}
	return e.estimate(items, tier)
}

// EstimateLabels prices a plain list of item names, e.g. suggested
// additions that have no detection backing them. Object references are -1.
func (e *Estimator) EstimateLabels(labels []string, tier string) *types.CostBreakdown {
	items := make([]item, len(labels))
	for i, label := range labels {
		items[i] = item{objectIndex: -1, label: label}
	}
	return e.estimate(items, tier)
}

func (e *Estimator) estimate(items []item, tier string) *types.CostBreakdown {
	if tier != TierBudget && tier != TierMidRange && tier != TierPremium {
		tier = TierMidRange
	}

	breakdown := &types.CostBreakdown{
		Items:       []types.CostEstimate{},
		Currency:    e.table.Currency,
		BudgetLevel: tier,
	}

	subtotal := decimal.Zero
	for _, it := range items {
		unitPrice, ok := e.table.Lookup(it.label, tier)
		if !ok {
			// Per-item failure: flag it and keep pricing the rest.
			perr := &errs.PricingNotFoundError{Label: it.label}
			breakdown.Unpriced = append(breakdown.Unpriced, types.UnpricedItem{
				ObjectIndex: it.objectIndex,
				Label:       it.label,
				Reason:      perr.Error(),
			})
			continue
		}

		quantity := 1
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		subtotal = subtotal.Add(lineTotal)

		breakdown.Items = append(breakdown.Items, types.CostEstimate{
			ObjectIndex: it.objectIndex,
			Name:        it.label,
			UnitPrice:   unitPrice.StringFixed(2),
			Quantity:    quantity,
			Subtotal:    lineTotal.StringFixed(2),
			Currency:    e.table.Currency,
		})
	}

	installation := subtotal.Mul(e.installationRate).Round(2)
	breakdown.Subtotal = subtotal.StringFixed(2)
	breakdown.Installation = installation.StringFixed(2)
	breakdown.Total = subtotal.Add(installation).StringFixed(2)
	return breakdown
}

// CompareBudgets prices the same objects across every tier.
func (e *Estimator) CompareBudgets(objects []types.DetectedObject) map[string]*types.CostBreakdown {
	out := make(map[string]*types.CostBreakdown, 3)
	for _, tier := range Tiers() {
		out[tier] = e.EstimateObjects(objects, tier)
	}
	return out
}

// Currency returns the table's currency code.
func (e *Estimator) Currency() string {
	return e.table.Currency
}
