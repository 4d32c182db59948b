// Package review shapes the loaded stock rows into the dashboard view:
// filter, then sort, then paginate, all driven by an explicit State.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SortKey names a sortable product field.
type SortKey string

// Sortable fields.
const (
	SortNone        SortKey = ""
	SortSKU         SortKey = "sku"
	SortDescription SortKey = "description"
	SortPackaging   SortKey = "packaging"
	SortSupplier    SortKey = "supplier"
	SortEmb1        SortKey = "emb1"
	SortEmb9        SortKey = "emb9"
	SortAge         SortKey = "age"
	SortMissSale    SortKey = "missSale"
	SortSector      SortKey = "sector"
	SortDataStamp   SortKey = "dataStamp"
)

// SortKeys lists every sortable field in column order.
var SortKeys = []SortKey{
	SortSKU, SortDescription, SortPackaging, SortSupplier, SortEmb1,
	SortEmb9, SortAge, SortMissSale, SortSector, SortDataStamp,
}

// Valid reports whether k is a known key or SortNone.
func (k SortKey) Valid() bool {
	if k == SortNone {
		return true
	}
	for _, known := range SortKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Numeric reports whether k compares numerically.
func (k SortKey) Numeric() bool {
	switch k {
	case SortSKU, SortEmb1, SortEmb9, SortAge, SortMissSale:
		return true
	}
	return false
}

// Direction is the sort order.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Reverse flips the direction.
func (d Direction) Reverse() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// PageSizes are the selectable page lengths.
var PageSizes = []int{25, 50, 100, 200}

// DefaultPageSize is used when no size is chosen.
const DefaultPageSize = 100

// ValidPageSize reports whether n is selectable.
func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}

// ErrInvalidState is returned when query parameters cannot form a State.
var ErrInvalidState = errors.New("review: invalid view state")

// State is the complete dashboard view state.
type State struct {
	Supplier string    `json:"supplier,omitempty"`
	Query    string    `json:"query,omitempty"`
	Sort     SortKey   `json:"sort,omitempty"`
	Dir      Direction `json:"dir,omitempty"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}

// NewState returns the initial state with the given page size.
func NewState(size int) State {
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}
	return State{Dir: Asc, Page: 1, Size: size}
}

// Normalized fills zero values with defaults.
func (s State) Normalized() State {
	if s.Dir != Desc {
		s.Dir = Asc
	}
	if !s.Sort.Valid() {
		s.Sort = SortNone
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if !ValidPageSize(s.Size) {
		s.Size = DefaultPageSize
	}
	return s
}

// WithFilters sets both filter terms. The page resets when either changes.
func (s State) WithFilters(supplier, query string) State {
	if supplier != s.Supplier || query != s.Query {
		s.Page = 1
	}
	s.Supplier = supplier
	s.Query = query
	return s
}

// WithSort toggles the direction on the current key or starts a new key ascending.
func (s State) WithSort(key SortKey) State {
	if key == s.Sort && key != SortNone {
		s.Dir = s.Dir.Reverse()
		return s
	}
	s.Sort = key
	s.Dir = Asc
	return s
}

// WithPage moves to page n.
func (s State) WithPage(n int) State {
	if n < 1 {
		n = 1
	}
	s.Page = n
	return s
}

// WithSize changes the page length and resets the page.
func (s State) WithSize(n int) State {
	if !ValidPageSize(n) {
		return s
	}
	if n != s.Size {
		s.Page = 1
	}
	s.Size = n
	return s
}

// Reconcile moves from prev to next, resetting the page when the filters or
// the page size changed.
func Reconcile(prev, next State) State {
	next = next.Normalized()
	if prev.Supplier != next.Supplier || prev.Query != next.Query || prev.Size != next.Size {
		next.Page = 1
	}
	return next
}

// Values encodes the state as query parameters. The page is always present so
// a link never falls back to the stored state; other defaults are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	if s.Supplier != "" {
		v.Set("supplier", s.Supplier)
	}
	if s.Query != "" {
		v.Set("query", s.Query)
	}
	if s.Sort != SortNone {
		v.Set("sort", string(s.Sort))
		v.Set("dir", string(s.Dir))
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if s.Size != 0 && s.Size != DefaultPageSize {
		v.Set("size", strconv.Itoa(s.Size))
	}
	return v
}

// Href renders the state as a relative link to path.
func (s State) Href(path string) string {
	return path + "?" + s.Values().Encode()
}

var stateParams = []string{"supplier", "query", "sort", "dir", "page", "size"}

// HasParams reports whether v carries any view-state parameter.
func HasParams(v url.Values) bool {
	for _, key := range stateParams {
		if _, ok := v[key]; ok {
			return true
		}
	}
	return false
}

type stateQuery struct {
	Supplier string `validate:"max=120"`
	Query    string `validate:"max=200"`
	Sort     string `validate:"omitempty,oneof=sku description packaging supplier emb1 emb9 age missSale sector dataStamp"`
	Dir      string `validate:"omitempty,oneof=asc desc"`
	Page     int    `validate:"gte=1"`
	Size     int    `validate:"oneof=25 50 100 200"`
}

var validate = validator.New()

// ParseQuery builds a State from query parameters. Missing values take defaults.
func ParseQuery(v url.Values) (State, error) {
	q := stateQuery{
		Supplier: v.Get("supplier"),
		Query:    v.Get("query"),
		Sort:     strings.TrimSpace(v.Get("sort")),
		Dir:      strings.ToLower(strings.TrimSpace(v.Get("dir"))),
		Page:     1,
		Size:     DefaultPageSize,
	}
	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: page %q", ErrInvalidState, raw)
		}
		q.Page = n
	}
	if raw := strings.TrimSpace(v.Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: size %q", ErrInvalidState, raw)
		}
		q.Size = n
	}
	if err := validate.Struct(q); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	state := State{
		Supplier: q.Supplier,
		Query:    q.Query,
		Sort:     SortKey(q.Sort),
		Dir:      Direction(q.Dir),
		Page:     q.Page,
		Size:     q.Size,
	}
	return state.Normalized(), nil
}

// EncodeJSON serializes the state for session storage.
func (s State) EncodeJSON() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeState reads a state stored by EncodeJSON. An empty payload yields def.
func DecodeState(payload string, def State) (State, error) {
	if strings.TrimSpace(payload) == "" {
		return def, nil
	}
	var s State
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return def, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return s.Normalized(), nil
}
