package dashboard

import (
	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/internal/view"
)

type column struct {
	Key     review.SortKey
	Label   string
	Href    string
	Numeric bool
}

var columnLabels = []struct {
	key   review.SortKey
	label string
}{
	{review.SortSKU, "Código"},
	{review.SortDescription, "Descrição"},
	{review.SortPackaging, "Embalagem"},
	{review.SortSupplier, "Fornecedor"},
	{review.SortEmb1, "Emb1"},
	{review.SortEmb9, "Emb9"},
	{review.SortAge, "Idade"},
	{review.SortMissSale, "Sem Venda"},
	{review.SortSector, "Grupo"},
}

func buildColumns(state review.State) []column {
	cols := make([]column, 0, len(columnLabels))
	for _, c := range columnLabels {
		cols = append(cols, column{
			Key:     c.key,
			Label:   c.label,
			Href:    state.WithSort(c.key).Href("/"),
			Numeric: c.key.Numeric(),
		})
	}
	return cols
}

type pageLinks struct {
	Clear string
}

func buildLinks(state review.State) pageLinks {
	cleared := state.WithFilters("", "")
	cleared.Page = 1
	return pageLinks{Clear: cleared.Href("/")}
}

func buildExports(state review.State) *view.ExportLinks {
	state.Page = 1
	return &view.ExportLinks{
		CSV:   state.Href("/export.csv"),
		XLSX:  state.Href("/export.xlsx"),
		Print: state.Href("/print"),
		PDF:   state.Href("/print.pdf"),
	}
}

type dashboardPage struct {
	State     review.State
	Result    review.Result
	Columns   []column
	Pager     shared.Pagination
	PageSizes []int
	DataStamp string
	Links     pageLinks
	Error     string
}

type printPage struct {
	State       review.State
	Result      review.Result
	Columns     []column
	DataStamp   string
	Stylesheet  string
	Interactive bool
}
