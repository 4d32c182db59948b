// Package stock loads stock review records from the backend and holds the
// normalized snapshot served to the dashboard.
package stock

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FlexString accepts either a JSON string or a bare JSON scalar.
type FlexString string

// UnmarshalJSON keeps the literal text of numbers and booleans; null becomes empty.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = FlexString(text)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// String returns the raw text.
func (s FlexString) String() string {
	return string(s)
}

// RawProduct is a backend row before coercion. Every field is text.
type RawProduct struct {
	SKU         FlexString `json:"sku"`
	Description FlexString `json:"description"`
	Packaging   FlexString `json:"packaging"`
	Supplier    FlexString `json:"supplier"`
	Fornecedor  FlexString `json:"fornecedor,omitempty"`
	Emb1        FlexString `json:"emb1"`
	Emb9        FlexString `json:"emb9"`
	Age         FlexString `json:"age"`
	MissSale    FlexString `json:"missSale"`
	Sector      FlexString `json:"sector"`
	DataStamp   FlexString `json:"dataStamp"`
}

// SupplierCode returns the supplier code, falling back to the legacy alias.
func (r RawProduct) SupplierCode() string {
	if code := strings.TrimSpace(string(r.Supplier)); code != "" {
		return code
	}
	return strings.TrimSpace(string(r.Fornecedor))
}

// Product is a normalized stock row.
type Product struct {
	SKU         int64   `json:"sku"`
	Description string  `json:"description"`
	Packaging   string  `json:"packaging"`
	Supplier    string  `json:"supplier"`
	Emb1        float64 `json:"emb1"`
	Emb9        float64 `json:"emb9"`
	Age         float64 `json:"age"`
	MissSale    float64 `json:"missSale"`
	Sector      string  `json:"sector"`
	DataStamp   string  `json:"dataStamp"`
}

// Snapshot is one applied load of the record set.
type Snapshot struct {
	Products    []Product
	Suppliers   []string
	DataStamp   string
	// SourceStamp is the backend stamp seen when the snapshot was loaded.
	SourceStamp string
	LoadedAt    time.Time
	Seq         uint64
}

// Empty reports whether the snapshot carries no rows.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Products) == 0
}
