package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Budget tiers recognized by the pricing table.
const (
	TierBudget   = "budget"
	TierMidRange = "mid-range"
	TierPremium  = "premium"
)

// Tiers lists the budget tiers in ascending order of spend.
func Tiers() []string {
	return []string{TierBudget, TierMidRange, TierPremium}
}

// TierPrices holds one item's price per budget tier.
type TierPrices struct {
	Budget   decimal.Decimal `json:"budget"`
	MidRange decimal.Decimal `json:"mid-range"`
	Premium  decimal.Decimal `json:"premium"`
}

// At returns the price for the given tier, defaulting to mid-range for an
// unrecognized tier name.
func (t TierPrices) At(tier string) decimal.Decimal {
	switch tier {
	case TierBudget:
		return t.Budget
	case TierPremium:
		return t.Premium
	default:
		return t.MidRange
	}
}

// Table is a read-only pricing table keyed by class label. It is loaded once
// at startup and never mutated afterwards.
type Table struct {
	Currency string                `json:"currency"`
	Prices   map[string]TierPrices `json:"prices"`

	sortedLabels []string
}

// LoadTable reads a pricing table from a JSON file.
func LoadTable(filename string) (*Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing table: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse pricing table: %w", err)
	}
	if table.Currency == "" {
		table.Currency = "INR"
	}
	if len(table.Prices) == 0 {
		return nil, fmt.Errorf("pricing table has no entries")
	}
	table.indexLabels()
	return &table, nil
}

// Lookup finds the price for a class label at the given tier. Exact matches
// win; otherwise the first partial match in sorted label order is used so
// that "dining chairs" still resolves against "dining chair". The second
// return is false when no entry matches.
func (t *Table) Lookup(label, tier string) (decimal.Decimal, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if prices, ok := t.Prices[key]; ok {
		return prices.At(tier), true
	}

	for _, known := range t.sortedLabels {
		if strings.Contains(key, known) || strings.Contains(known, key) {
			return t.Prices[known].At(tier), true
		}
	}
	return decimal.Zero, false
}

// indexLabels caches the sorted label list so partial matching is
// deterministic regardless of map iteration order.
func (t *Table) indexLabels() {
	t.sortedLabels = make([]string, 0, len(t.Prices))
	for label := range t.Prices {
		t.sortedLabels = append(t.sortedLabels, label)
	}
	sort.Strings(t.sortedLabels)
}

func price(budget, mid, premium int64) TierPrices {
	return TierPrices{
		Budget:   decimal.NewFromInt(budget),
		MidRange: decimal.NewFromInt(mid),
		Premium:  decimal.NewFromInt(premium),
	}
}

// DefaultTable returns the built-in furniture price list in INR, based on
// average Indian market prices.
func DefaultTable() *Table {
	t := &Table{
		Currency: "INR",
		Prices: map[string]TierPrices{
			// Living room
			"sofa":          price(15000, 35000, 75000),
			"couch":         price(15000, 35000, 75000),
			"coffee table":  price(3000, 8000, 20000),
			"tv stand":      price(4000, 12000, 30000),
			"tv":            price(15000, 40000, 90000),
			"armchair":      price(8000, 18000, 40000),
			"side table":    price(2000, 5000, 12000),
			"floor lamp":    price(1500, 4000, 10000),
			"rug":           price(2500, 8000, 25000),
			"bookshelf":     price(5000, 12000, 30000),
			"ottoman":       price(4000, 9000, 20000),
			"console table": price(6000, 15000, 35000),

			// Bedroom
			"bed":          price(12000, 30000, 80000),
			"nightstand":   price(3000, 7000, 18000),
			"wardrobe":     price(15000, 35000, 90000),
			"dresser":      price(8000, 18000, 45000),
			"bedside lamp": price(1000, 3000, 8000),
			"mirror":       price(2000, 5000, 15000),
			"vanity":       price(10000, 25000, 60000),
			"bench":        price(4000, 10000, 25000),
			"reading lamp": price(1500, 4000, 10000),

			// Kitchen and dining
			"dining table":   price(10000, 25000, 65000),
			"dining chair":   price(2000, 5000, 12000),
			"bar stool":      price(2000, 5000, 12000),
			"pendant light":  price(2000, 6000, 18000),
			"kitchen island": price(20000, 45000, 100000),
			"sideboard":      price(12000, 30000, 75000),
			"wine rack":      price(3000, 8000, 20000),
			"bar cart":       price(5000, 12000, 30000),
			"chair":          price(3000, 8000, 20000),

			// Office
			"desk":            price(8000, 18000, 45000),
			"office chair":    price(6000, 15000, 40000),
			"filing cabinet":  price(5000, 12000, 28000),
			"desk lamp":       price(1200, 3500, 9000),
			"credenza":        price(15000, 35000, 80000),
			"study desk":      price(7000, 16000, 40000),
			"storage cabinet": price(6000, 15000, 35000),

			// Bathroom
			"towel rack":       price(800, 2000, 5000),
			"bath mat":         price(500, 1500, 4000),
			"decorative shelf": price(2000, 5000, 12000),
			"plant stand":      price(1500, 4000, 10000),

			// Indian specific
			"puja shelf":         price(5000, 12000, 30000),
			"wooden puja mandir": price(10000, 25000, 65000),
			"deity idols":        price(2000, 5000, 15000),
			"diya stand":         price(1000, 3000, 8000),
			"brass diya":         price(800, 2000, 6000),
			"prayer mat":         price(500, 1500, 4000),
			"incense holder":     price(400, 1000, 3000),
			"prayer bells":       price(800, 2500, 7000),
			"traditional rug":    price(3000, 10000, 30000),
			"ethnic wall art":    price(2000, 6000, 18000),

			// Miscellaneous
			"wall art":    price(1500, 5000, 15000),
			"centerpiece": price(1000, 3000, 9000),
			"wall shelf":  price(3000, 8000, 20000),
			"coat rack":   price(2000, 5000, 12000),
		},
	}
	t.indexLabels()
	return t
}
