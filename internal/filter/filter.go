// Package filter derives the filtered and sorted after-sales view from the
// completed-order list.
package filter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/loomline/backoffice/internal/orders"
)

var (
	ErrUnknownField = errors.New("unknown filter field")
	ErrUnknownSort  = errors.New("unknown sort mode")
)

type Field string

const (
	FieldDate  Field = "date"
	FieldItem  Field = "item"
	FieldColor Field = "color"
	FieldSort  Field = "sort"
)

type SortMode string

const (
	SortNewest       SortMode = "newest"
	SortOldest       SortMode = "oldest"
	SortItemPopular  SortMode = "item-popular"
	SortColorPopular SortMode = "color-popular"
	SortPriceHigh    SortMode = "price-high"
	SortPriceLow     SortMode = "price-low"
)

// SortModes lists every accepted mode in display order.
var SortModes = []SortMode{SortNewest, SortOldest, SortItemPopular, SortColorPopular, SortPriceHigh, SortPriceLow}

func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortNewest, nil
	}
	m := SortMode(s)
	if !slices.Contains(SortModes, m) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
	return m, nil
}

// State is the current selection. An empty string means no constraint.
type State struct {
	Date  string   `json:"date"`
	Item  string   `json:"item"`
	Color string   `json:"color"`
	Sort  SortMode `json:"sort"`
}

// With returns a copy of s with one field changed.
func (s State) With(field Field, value string) (State, error) {
	switch field {
	case FieldDate:
		s.Date = value
	case FieldItem:
		s.Item = value
	case FieldColor:
		s.Color = value
	case FieldSort:
		m, err := ParseSortMode(value)
		if err != nil {
			return s, err
		}
		s.Sort = m
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return s, nil
}

// Apply filters list by date, item and color (in that order) and sorts the
// result. The input is not modified. Sorting is stable.
func Apply(list []orders.Order, s State) []orders.Order {
	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		if s.Date != "" && o.Date != s.Date {
			continue
		}
		if s.Item != "" && o.Item != s.Item {
			continue
		}
		if s.Color != "" && o.Color != s.Color {
			continue
		}
		out = append(out, o)
	}

	switch s.Sort {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b orders.Order) int {
			return parseDate(a.Date).Compare(parseDate(b.Date))
		})
	case SortItemPopular:
		sortByPopularity(out, func(o orders.Order) string { return o.Item })
	case SortColorPopular:
		sortByPopularity(out, func(o orders.Order) string { return o.Color })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b orders.Order) int { return b.Price.Cmp(a.Price) })
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b orders.Order) int { return a.Price.Cmp(b.Price) })
	default:
		slices.SortStableFunc(out, func(a, b orders.Order) int {
			return parseDate(b.Date).Compare(parseDate(a.Date))
		})
	}
	return out
}

// sortByPopularity orders by how often each record's key occurs in list,
// most frequent first. Equal counts keep their filtered order.
func sortByPopularity(list []orders.Order, key func(orders.Order) string) {
	counts := make(map[string]int, len(list))
	for _, o := range list {
		counts[key(o)]++
	}
	slices.SortStableFunc(list, func(a, b orders.Order) int {
		return cmp.Compare(counts[key(b)], counts[key(a)])
	})
}

// Unparseable dates sort as the zero time.
func parseDate(s string) time.Time {
	t, err := time.Parse(orders.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// View holds one viewer's filter state and the list it derives from.
type View struct {
	mu      sync.Mutex
	source  []orders.Order
	state   State
	derived []orders.Order
}

func NewView() *View {
	return &View{state: State{Sort: SortNewest}, derived: []orders.Order{}}
}

// SetOrders replaces the source list and re-derives the view.
func (v *View) SetOrders(list []orders.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.source = slices.Clone(list)
	v.derived = Apply(v.source, v.state)
}

// SetFilter changes one field and re-derives the view. On error the state is
// left unchanged.
func (v *View) SetFilter(field Field, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := v.state.With(field, value)
	if err != nil {
		return err
	}
	v.state = next
	v.derived = Apply(v.source, v.state)
	return nil
}

// Orders returns a copy of the derived list.
func (v *View) Orders() []orders.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.derived)
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
