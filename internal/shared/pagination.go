package shared

// Pagination is the pager model rendered under a paginated table.
type Pagination struct {
	Page    int
	Pages   int
	PerPage int
	Total   int
	// Window lists the page numbers shown as direct links; 0 marks a gap.
	Window []int
}

const pagerWindow = 2

// NewPagination builds the pager for page of pages.
func NewPagination(page, pages, perPage, total int) Pagination {
	if pages < 1 {
		pages = 1
	}
	if page < 1 || page > pages {
		page = 1
	}
	return Pagination{Page: page, Pages: pages, PerPage: perPage, Total: total, Window: pageWindow(page, pages)}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.Pages }

// Prev is the previous page number.
func (p Pagination) Prev() int { return p.Page - 1 }

// Next is the next page number.
func (p Pagination) Next() int { return p.Page + 1 }

// First is the 1-based index of the first row on the page.
func (p Pagination) First() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// Last is the 1-based index of the last row on the page.
func (p Pagination) Last() int {
	last := p.Page * p.PerPage
	if last > p.Total {
		last = p.Total
	}
	return last
}

func pageWindow(page, pages int) []int {
	out := []int{1}
	start := page - pagerWindow
	if start < 2 {
		start = 2
	}
	end := page + pagerWindow
	if end > pages-1 {
		end = pages - 1
	}
	if start > 2 {
		out = append(out, 0)
	}
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	if end < pages-1 {
		out = append(out, 0)
	}
	if pages > 1 {
		out = append(out, pages)
	}
	return out
}
