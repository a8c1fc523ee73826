package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/loomline/backoffice/internal/enum"
	"github.com/loomline/backoffice/internal/filter"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var sortLabels = map[filter.SortMode]string{
	filter.SortNewest:       "Newest first",
	filter.SortOldest:       "Oldest first",
	filter.SortItemPopular:  "Most popular item",
	filter.SortColorPopular: "Most popular color",
	filter.SortPriceHigh:    "Price: high to low",
	filter.SortPriceLow:     "Price: low to high",
}

// TableRenderer projects order lists into the after-sales table markup.
// It holds no per-render state and is safe for concurrent use.
type TableRenderer struct {
	printer *message.Printer
	tmpl    *template.Template
}

func NewTableRenderer(tag language.Tag) *TableRenderer {
	r := &TableRenderer{printer: message.NewPrinter(tag)}
	r.tmpl = template.Must(template.New("render").
		Funcs(template.FuncMap{"price": r.FormatPrice}).
		ParseFS(templateFS, "templates/*.html"))
	return r
}

// Render writes one table row per order; the output replaces the table body.
func (r *TableRenderer) Render(w io.Writer, list []orders.Order) error {
	return r.tmpl.ExecuteTemplate(w, "rows", list)
}

// FormatPrice renders the integer currency amount with locale thousands
// separators, e.g. "IDR 1,200" for English.
func (r *TableRenderer) FormatPrice(d decimal.Decimal) string {
	return enum.CurrencyCode + " " + r.printer.Sprintf("%d", d.Round(0).IntPart())
}

type sortOption struct {
	Value    filter.SortMode
	Label    string
	Selected bool
}

// PageData is the input to Page.
type PageData struct {
	State  filter.State
	Items  []string
	Colors []string
	Rows   []orders.Order
}

// Page writes the full after-sales page: filter controls plus the table.
func (r *TableRenderer) Page(w io.Writer, data PageData) error {
	opts := make([]sortOption, len(filter.SortModes))
	for i, m := range filter.SortModes {
		opts[i] = sortOption{Value: m, Label: sortLabels[m], Selected: m == data.State.Sort}
	}
	return r.tmpl.ExecuteTemplate(w, "page", struct {
		PageData
		SortModes []sortOption
	}{data, opts})
}
