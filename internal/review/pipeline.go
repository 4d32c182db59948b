package review

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/isv-promotor/stockreview/internal/stock"
)

// Filter keeps the products whose supplier contains supplierTerm and whose
// description or sector contains queryTerm, ignoring case. Terms are matched
// as typed, so only an empty term matches everything. The input is never
// modified.
func Filter(products []stock.Product, supplierTerm, queryTerm string) []stock.Product {
	supplierTerm = strings.ToLower(supplierTerm)
	queryTerm = strings.ToLower(queryTerm)
	out := make([]stock.Product, 0, len(products))
	for _, p := range products {
		if supplierTerm != "" && !strings.Contains(strings.ToLower(p.Supplier), supplierTerm) {
			continue
		}
		if queryTerm != "" &&
			!strings.Contains(strings.ToLower(p.Description), queryTerm) &&
			!strings.Contains(strings.ToLower(p.Sector), queryTerm) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sorter orders products using the collation rules of a locale.
type Sorter struct {
	tag language.Tag
}

// NewSorter builds a sorter for tag.
func NewSorter(tag language.Tag) Sorter {
	return Sorter{tag: tag}
}

// Sort returns a stably sorted copy. SortNone keeps the input order.
func (s Sorter) Sort(products []stock.Product, key SortKey, dir Direction) []stock.Product {
	out := make([]stock.Product, len(products))
	copy(out, products)
	if key == SortNone || !key.Valid() {
		return out
	}

	var cmp func(a, b stock.Product) int
	if key.Numeric() {
		cmp = func(a, b stock.Product) int { return compareFloat(numericField(a, key), numericField(b, key)) }
	} else {
		col := collate.New(s.tag, collate.IgnoreCase)
		cmp = func(a, b stock.Product) int { return col.CompareString(textField(a, key), textField(b, key)) }
	}
	if dir == Desc {
		sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) > 0 })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	}
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func numericField(p stock.Product, key SortKey) float64 {
	switch key {
	case SortSKU:
		return float64(p.SKU)
	case SortEmb1:
		return p.Emb1
	case SortEmb9:
		return p.Emb9
	case SortAge:
		return p.Age
	case SortMissSale:
		return p.MissSale
	}
	return 0
}

func textField(p stock.Product, key SortKey) string {
	switch key {
	case SortDescription:
		return p.Description
	case SortPackaging:
		return p.Packaging
	case SortSupplier:
		return p.Supplier
	case SortSector:
		return p.Sector
	case SortDataStamp:
		return p.DataStamp
	}
	return ""
}

// Paginate returns page (1-based) of the given size, clipped to the available rows.
func Paginate(products []stock.Product, page, size int) []stock.Product {
	if size <= 0 || page < 1 {
		return []stock.Product{}
	}
	start := (page - 1) * size
	if start >= len(products) {
		return []stock.Product{}
	}
	end := start + size
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

// TotalPages is ceil(count/size) and never below 1.
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Result is one shaped view.
type Result struct {
	State State
	// All holds every filtered and sorted row, for export and print.
	All      []stock.Product
	Rows     []stock.Product
	Filtered int
	Total    int
	Pages    int
}

// Pipeline runs filter, sort and paginate in that order.
type Pipeline struct {
	sorter Sorter
}

// NewPipeline builds a pipeline collating text for tag.
func NewPipeline(tag language.Tag) *Pipeline {
	return &Pipeline{sorter: NewSorter(tag)}
}

// Shape filters and sorts without paginating.
func (p *Pipeline) Shape(products []stock.Product, state State) []stock.Product {
	filtered := Filter(products, state.Supplier, state.Query)
	return p.sorter.Sort(filtered, state.Sort, state.Dir)
}

// Apply shapes products for state. A page outside the result is clamped to 1
// and the returned State reflects that.
func (p *Pipeline) Apply(products []stock.Product, state State) Result {
	state = state.Normalized()
	all := p.Shape(products, state)
	pages := TotalPages(len(all), state.Size)
	if state.Page > pages {
		state.Page = 1
	}
	return Result{
		State:    state,
		All:      all,
		Rows:     Paginate(all, state.Page, state.Size),
		Filtered: len(all),
		Total:    len(products),
		Pages:    pages,
	}
}
