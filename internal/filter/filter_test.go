package filter

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/shopspring/decimal"
)

func order(item, color string, price int64, date string) orders.Order {
	return orders.Order{
		ID:           uuid.New(),
		CustomerName: "Unknown Customer",
		Item:         item,
		Color:        color,
		Price:        decimal.NewFromInt(price),
		Date:         date,
	}
}

func prices(list []orders.Order) []int64 {
	out := make([]int64, len(list))
	for i, o := range list {
		out[i] = o.Price.IntPart()
	}
	return out
}

func ids(list []orders.Order) []uuid.UUID {
	out := make([]uuid.UUID, len(list))
	for i, o := range list {
		out[i] = o.ID
	}
	return out
}

func TestScenario_ItemFilterThenPriceHigh(t *testing.T) {
	v := NewView()
	v.SetOrders([]orders.Order{
		order("Shirt", "Black", 1000, "2024-01-05"),
		order("Shirt", "White", 1200, "2024-01-10"),
	})

	if err := v.SetFilter(FieldItem, "Shirt"); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if got := len(v.Orders()); got != 2 {
		t.Fatalf("view size: got %d, want 2", got)
	}

	if err := v.SetFilter(FieldSort, "price-high"); err != nil {
		t.Fatalf("set sort: %v", err)
	}
	if diff := cmp.Diff([]int64{1200, 1000}, prices(v.Orders())); diff != "" {
		t.Errorf("price order (-want +got):\n%s", diff)
	}
}

func TestEmptyFiltersAreNoOp(t *testing.T) {
	list := []orders.Order{
		order("Shirt", "Black", 1000, "2024-01-05"),
		order("Jeans", "Blue", 3000, "2024-01-12"),
		order("Scarf", "Red", 500, "2024-01-08"),
	}

	v := NewView()
	v.SetOrders(list)
	for _, f := range []Field{FieldDate, FieldItem, FieldColor, FieldSort} {
		if err := v.SetFilter(f, ""); err != nil {
			t.Fatalf("set %s: %v", f, err)
		}
	}

	want := Apply(list, State{Sort: SortNewest})
	if diff := cmp.Diff(ids(want), ids(v.Orders())); diff != "" {
		t.Errorf("empty filters changed the view (-want +got):\n%s", diff)
	}
	if got := v.Orders()[0].Date; got != "2024-01-12" {
		t.Errorf("default sort should be newest first, head date %s", got)
	}
}

func TestSetFilterIdempotent(t *testing.T) {
	list := []orders.Order{
		order("Shirt", "Black", 1000, "2024-01-05"),
		order("Shirt", "White", 1200, "2024-01-10"),
		order("Jeans", "Black", 2500, "2024-01-10"),
	}

	once := NewView()
	once.SetOrders(list)
	_ = once.SetFilter(FieldColor, "Black")

	twice := NewView()
	twice.SetOrders(list)
	_ = twice.SetFilter(FieldColor, "Black")
	_ = twice.SetFilter(FieldColor, "Black")

	if diff := cmp.Diff(ids(once.Orders()), ids(twice.Orders())); diff != "" {
		t.Errorf("repeated SetFilter changed the view (-once +twice):\n%s", diff)
	}
}

func TestPopularitySortIsPermutation(t *testing.T) {
	list := []orders.Order{
		order("Scarf", "Red", 500, "2024-01-01"),
		order("Shirt", "Black", 1000, "2024-01-02"),
		order("Jeans", "Blue", 3000, "2024-01-03"),
		order("Shirt", "White", 1200, "2024-01-04"),
		order("Shirt", "Black", 1100, "2024-01-05"),
		order("Jeans", "Black", 2900, "2024-01-06"),
	}

	for _, mode := range []SortMode{SortItemPopular, SortColorPopular} {
		t.Run(string(mode), func(t *testing.T) {
			filtered := Apply(list, State{Sort: SortNewest})
			sorted := Apply(list, State{Sort: mode})

			a, b := ids(filtered), ids(sorted)
			less := func(x, y uuid.UUID) int { return slices.Compare(x[:], y[:]) }
			slices.SortFunc(a, less)
			slices.SortFunc(b, less)
			if diff := cmp.Diff(a, b); diff != "" {
				t.Errorf("sort dropped or duplicated records (-filtered +sorted):\n%s", diff)
			}
		})
	}

	sorted := Apply(list, State{Sort: SortItemPopular})
	for i := 0; i < 3; i++ {
		if sorted[i].Item != "Shirt" {
			t.Errorf("position %d: got %s, want Shirt", i, sorted[i].Item)
		}
	}
}

func TestPopularityTiesKeepFilteredOrder(t *testing.T) {
	a := order("Jeans", "Blue", 3000, "2024-01-01")
	b := order("Scarf", "Red", 500, "2024-01-01")
	c := order("Jeans", "Blue", 2800, "2024-01-01")
	d := order("Scarf", "Red", 450, "2024-01-01")

	got := Apply([]orders.Order{a, b, c, d}, State{Sort: SortColorPopular})
	if diff := cmp.Diff(ids([]orders.Order{a, b, c, d}), ids(got)); diff != "" {
		t.Errorf("tie order changed (-want +got):\n%s", diff)
	}
}

func TestFiltersCombine(t *testing.T) {
	list := []orders.Order{
		order("Shirt", "Black", 1000, "2024-01-05"),
		order("Shirt", "White", 1200, "2024-01-05"),
		order("Shirt", "Black", 900, "2024-01-06"),
		order("Jeans", "Black", 2500, "2024-01-05"),
	}
	got := Apply(list, State{Date: "2024-01-05", Item: "Shirt", Color: "Black", Sort: SortPriceLow})
	if diff := cmp.Diff([]int64{1000}, prices(got)); diff != "" {
		t.Errorf("combined filter (-want +got):\n%s", diff)
	}

	got = Apply(list, State{Sort: SortOldest})
	if got[len(got)-1].Date != "2024-01-06" {
		t.Errorf("oldest-first: last date %s, want 2024-01-06", got[len(got)-1].Date)
	}
}

func TestSetFilterErrors(t *testing.T) {
	v := NewView()
	if err := v.SetFilter("size", "M"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("got %v, want ErrUnknownField", err)
	}
	if err := v.SetFilter(FieldSort, "random"); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("got %v, want ErrUnknownSort", err)
	}
	if v.State().Sort != SortNewest {
		t.Errorf("failed SetFilter must not change state, got %q", v.State().Sort)
	}
}

func TestViewReturnsCopy(t *testing.T) {
	v := NewView()
	v.SetOrders([]orders.Order{order("Shirt", "Black", 1000, "2024-01-05")})

	got := v.Orders()
	got[0].Item = "mutated"
	if v.Orders()[0].Item != "Shirt" {
		t.Error("Orders exposes internal state")
	}
}

func TestSetOrdersReappliesState(t *testing.T) {
	v := NewView()
	_ = v.SetFilter(FieldColor, "White")
	v.SetOrders([]orders.Order{
		order("Shirt", "Black", 1000, "2024-01-05"),
		order("Shirt", "White", 1200, "2024-01-10"),
	})
	if got := v.Orders(); len(got) != 1 || got[0].Color != "White" {
		t.Errorf("got %+v, want only the White order", got)
	}
}
