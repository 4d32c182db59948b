package stock

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/isv-promotor/stockreview/internal/suppliers"
)

// RootCodeLength is how many leading characters of a supplier code identify
// the supplier in the reference table.
const RootCodeLength = 8

// RootCode trims code and keeps its first RootCodeLength characters.
func RootCode(code string) string {
	code = strings.TrimSpace(code)
	runes := []rune(code)
	if len(runes) <= RootCodeLength {
		return code
	}
	return string(runes[:RootCodeLength])
}

// ResolveSupplier maps a raw supplier code to a display name, falling back to
// the trimmed raw code.
func ResolveSupplier(raw string, resolver suppliers.Resolver) string {
	code := strings.TrimSpace(raw)
	if resolver == nil {
		return code
	}
	if name, ok := resolver.Resolve(RootCode(code)); ok {
		return name
	}
	return code
}

// Normalize coerces raw rows into products, one per row in input order. A
// row repeating an already seen non-zero sku is kept and logged.
func Normalize(raws []RawProduct, resolver suppliers.Resolver, logger *slog.Logger) []Product {
	if logger == nil {
		logger = slog.Default()
	}
	products := make([]Product, 0, len(raws))
	seen := make(map[int64]struct{}, len(raws))
	for i, raw := range raws {
		c := coercer{logger: logger, index: i, sku: string(raw.SKU)}
		p := Product{
			SKU:         c.integer("sku", string(raw.SKU)),
			Description: strings.TrimSpace(string(raw.Description)),
			Packaging:   strings.TrimSpace(string(raw.Packaging)),
			Supplier:    ResolveSupplier(raw.SupplierCode(), resolver),
			Emb1:        c.number("emb1", string(raw.Emb1)),
			Emb9:        c.number("emb9", string(raw.Emb9)),
			Age:         c.number("age", string(raw.Age)),
			MissSale:    c.number("missSale", string(raw.MissSale)),
			Sector:      strings.TrimSpace(string(raw.Sector)),
			DataStamp:   strings.TrimSpace(string(raw.DataStamp)),
		}
		if p.SKU != 0 {
			if _, dup := seen[p.SKU]; dup {
				logger.Warn("stock: duplicate sku", slog.Int64("sku", p.SKU), slog.Int("index", i))
			}
			seen[p.SKU] = struct{}{}
		}
		products = append(products, p)
	}
	return products
}

// SupplierNames lists the distinct supplier names in ascending order.
func SupplierNames(products []Product) []string {
	set := make(map[string]struct{}, len(products))
	names := make([]string, 0)
	for _, p := range products {
		if p.Supplier == "" {
			continue
		}
		if _, ok := set[p.Supplier]; ok {
			continue
		}
		set[p.Supplier] = struct{}{}
		names = append(names, p.Supplier)
	}
	sort.Strings(names)
	return names
}

type coercer struct {
	logger *slog.Logger
	index  int
	sku    string
}

func (c coercer) number(field, raw string) float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.warn(field, raw)
		return 0
	}
	return v
}

func (c coercer) integer(field, raw string) int64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		c.warn(field, raw)
		return 0
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
		return int64(v)
	}
	c.warn(field, raw)
	return 0
}

func (c coercer) warn(field, raw string) {
	c.logger.Warn("stock: unparseable numeric field",
		slog.String("sku", c.sku),
		slog.String("field", field),
		slog.String("value", raw),
		slog.Int("index", c.index),
	)
}
