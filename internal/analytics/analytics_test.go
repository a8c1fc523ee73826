package analytics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestBuildFromEmbeddedFixtures(t *testing.T) {
	f, err := LoadFixtures()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d, err := f.Build(3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if d.Month != "2024-06" {
		t.Errorf("month: got %s, want 2024-06", d.Month)
	}
	if len(d.Revenue) != 6 {
		t.Errorf("revenue series: got %d points, want 6", len(d.Revenue))
	}

	want := map[string]string{
		"Revenue": "12.4",
		"Orders":  "11.2",
	}
	for _, k := range d.KPIs {
		w, ok := want[k.Label]
		if !ok {
			continue
		}
		if k.Growth == nil || k.Growth.String() != w {
			t.Errorf("%s growth: got %v, want %s", k.Label, k.Growth, w)
		}
	}
	if aov := d.KPIs[3]; !aov.Value.Equal(decimal.NewFromInt(149305)) {
		t.Errorf("average order value: got %s, want 149305", aov.Value)
	}

	names := make([]string, len(d.TopProducts))
	for i, p := range d.TopProducts {
		names[i] = p.Name
	}
	if diff := cmp.Diff([]string{"Slim Jeans", "Linen Shirt", "Oxford Shirt"}, names); diff != "" {
		t.Errorf("top products (-want +got):\n%s", diff)
	}

	if got := d.Categories[0]; got.Name != "Shirts" || got.Share.String() != "32.6" {
		t.Errorf("shirts share: got %+v", got)
	}
}

func TestCategorySharesSumToHundred(t *testing.T) {
	f, err := ParseFixtures([]byte(`
months: [{month: "2024-01", revenue: "100", orders: 1, customers: 1}]
categories:
  - {name: A, revenue: "50"}
  - {name: B, revenue: "30"}
  - {name: C, revenue: "20"}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d, err := f.Build(0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sum := decimal.Zero
	for _, c := range d.Categories {
		sum = sum.Add(c.Share)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("shares sum: got %s, want 100", sum)
	}
	if d.KPIs[0].Growth != nil {
		t.Error("growth without a previous month should be nil")
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		prev, cur string
		want      string
	}{
		{"100", "150", "50"},
		{"200", "150", "-25"},
		{"3", "4", "33.3"},
	}
	for _, tc := range tests {
		got := Growth(decimal.RequireFromString(tc.prev), decimal.RequireFromString(tc.cur))
		if got == nil || got.String() != tc.want {
			t.Errorf("Growth(%s, %s): got %v, want %s", tc.prev, tc.cur, got, tc.want)
		}
	}
	if Growth(decimal.Zero, decimal.NewFromInt(5)) != nil {
		t.Error("Growth from zero should be nil")
	}
}

func TestBuildWithoutMonths(t *testing.T) {
	f := &Fixtures{}
	if _, err := f.Build(5); !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}
