// Package analytics builds the dashboard charts from fixed sample figures.
package analytics

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

var ErrNoData = errors.New("analytics fixtures contain no months")

var hundred = decimal.NewFromInt(100)

type MonthFigures struct {
	Month     string          `yaml:"month" json:"month"`
	Revenue   decimal.Decimal `yaml:"revenue" json:"revenue"`
	Orders    int64           `yaml:"orders" json:"orders"`
	Customers int64           `yaml:"customers" json:"customers"`
}

type CategoryFigures struct {
	Name    string          `yaml:"name"`
	Revenue decimal.Decimal `yaml:"revenue"`
}

type ProductFigures struct {
	Name     string          `yaml:"name"`
	Category string          `yaml:"category"`
	Units    int64           `yaml:"units"`
	Revenue  decimal.Decimal `yaml:"revenue"`
}

// Fixtures is the raw sample data.
type Fixtures struct {
	Months     []MonthFigures    `yaml:"months"`
	Categories []CategoryFigures `yaml:"categories"`
	Products   []ProductFigures  `yaml:"products"`
}

// LoadFixtures parses the embedded sample data.
func LoadFixtures() (*Fixtures, error) {
	return ParseFixtures(fixturesYAML)
}

func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// KPI is one headline card. Growth is the percent change against the
// previous month, rounded to one decimal; nil when there is no baseline.
type KPI struct {
	Label  string           `json:"label"`
	Value  decimal.Decimal  `json:"value"`
	Growth *decimal.Decimal `json:"growth_pct"`
}

type CategoryShare struct {
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
	Share   decimal.Decimal `json:"share_pct"`
}

type TopProduct struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Units    int64           `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Dashboard is the composed chart data.
type Dashboard struct {
	Month       string          `json:"month"`
	KPIs        []KPI           `json:"kpis"`
	Revenue     []MonthFigures  `json:"revenue_series"`
	Categories  []CategoryShare `json:"categories"`
	TopProducts []TopProduct    `json:"top_products"`
}

// Build composes the dashboard for the latest month. topN limits the
// product ranking; 0 keeps all.
func (f *Fixtures) Build(topN int) (Dashboard, error) {
	if len(f.Months) == 0 {
		return Dashboard{}, ErrNoData
	}
	cur := f.Months[len(f.Months)-1]
	var prev *MonthFigures
	if len(f.Months) > 1 {
		prev = &f.Months[len(f.Months)-2]
	}

	aov := func(m MonthFigures) decimal.Decimal {
		if m.Orders == 0 {
			return decimal.Zero
		}
		return m.Revenue.Div(decimal.NewFromInt(m.Orders)).Round(0)
	}
	card := func(label string, value func(MonthFigures) decimal.Decimal) KPI {
		k := KPI{Label: label, Value: value(cur)}
		if prev != nil {
			k.Growth = Growth(value(*prev), k.Value)
		}
		return k
	}

	d := Dashboard{
		Month: cur.Month,
		KPIs: []KPI{
			card("Revenue", func(m MonthFigures) decimal.Decimal { return m.Revenue }),
			card("Orders", func(m MonthFigures) decimal.Decimal { return decimal.NewFromInt(m.Orders) }),
			card("Customers", func(m MonthFigures) decimal.Decimal { return decimal.NewFromInt(m.Customers) }),
			card("Average order value", aov),
		},
		Revenue:    slices.Clone(f.Months),
		Categories: shares(f.Categories),
	}

	products := make([]TopProduct, len(f.Products))
	for i, p := range f.Products {
		products[i] = TopProduct(p)
	}
	slices.SortStableFunc(products, func(a, b TopProduct) int { return b.Revenue.Cmp(a.Revenue) })
	if topN > 0 && len(products) > topN {
		products = products[:topN]
	}
	d.TopProducts = products
	return d, nil
}

// Growth returns the percent change from prev to cur, or nil if prev is zero.
func Growth(prev, cur decimal.Decimal) *decimal.Decimal {
	if prev.IsZero() {
		return nil
	}
	g := cur.Sub(prev).Div(prev).Mul(hundred).Round(1)
	return &g
}

func shares(cats []CategoryFigures) []CategoryShare {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Revenue)
	}
	out := make([]CategoryShare, len(cats))
	for i, c := range cats {
		share := decimal.Zero
		if !total.IsZero() {
			share = c.Revenue.Div(total).Mul(hundred).Round(1)
		}
		out[i] = CategoryShare{Name: c.Name, Revenue: c.Revenue, Share: share}
	}
	return out
}
