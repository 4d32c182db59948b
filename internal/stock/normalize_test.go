package stock

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isv-promotor/stockreview/internal/suppliers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRootCode(t *testing.T) {
	assert.Equal(t, "12345678", RootCode("  123456780001 "))
	assert.Equal(t, "1234", RootCode("1234"))
	assert.Equal(t, "ÁÉÍÓÚÇÃÕ", RootCode("ÁÉÍÓÚÇÃÕ99"))
	assert.Equal(t, "", RootCode("   "))
}

func TestNormalizeResolvesSupplier(t *testing.T) {
	table, err := suppliers.Parse(strings.NewReader("h\n12345678;Acme Foods;ACME\n"))
	require.NoError(t, err)

	raws := []RawProduct{
		{SKU: "1", Supplier: "123456780001"},
		{SKU: "2", Supplier: " 999999990001 "},
		{SKU: "3", Fornecedor: "12345678"},
	}
	products := Normalize(raws, table, discardLogger())
	require.Len(t, products, 3)
	assert.Equal(t, "ACME", products[0].Supplier)
	assert.Equal(t, "999999990001", products[1].Supplier)
	assert.Equal(t, "ACME", products[2].Supplier)
}

func TestNormalizeWithoutResolver(t *testing.T) {
	products := Normalize([]RawProduct{{SKU: "7", Supplier: " 12345678 "}}, nil, discardLogger())
	require.Len(t, products, 1)
	assert.Equal(t, "12345678", products[0].Supplier)
}

func TestNormalizeCoercesNumbers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	raws := []RawProduct{{
		SKU:         "100",
		Description: " RICE, WHITE ",
		Packaging:   "BOX",
		Supplier:    "ACME",
		Emb1:        "5.75",
		Emb9:        "abc",
		Age:         "",
		MissSale:    "2",
		Sector:      "GROCERY",
		DataStamp:   "2026-01-01 08:00:00",
	}}
	products := Normalize(raws, suppliers.Table{}, logger)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, int64(100), p.SKU)
	assert.Equal(t, "RICE, WHITE", p.Description)
	assert.Equal(t, 5.75, p.Emb1)
	assert.Zero(t, p.Emb9)
	assert.Zero(t, p.Age)
	assert.Equal(t, 2.0, p.MissSale)
	assert.Contains(t, buf.String(), "field=emb9")
	assert.NotContains(t, buf.String(), "field=age")
}

func TestNormalizeKeepsOrderAndDuplicateSKU(t *testing.T) {
	raws := []RawProduct{
		{SKU: "30", Description: "c"},
		{SKU: "10", Description: "a"},
		{SKU: "30", Description: "c again"},
		{SKU: "x", Description: "bad sku 1"},
		{SKU: "y", Description: "bad sku 2"},
		{SKU: "20.0", Description: "b"},
	}
	var logs bytes.Buffer
	products := Normalize(raws, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	var got []string
	for _, p := range products {
		got = append(got, p.Description)
	}
	assert.Equal(t, []string{"c", "a", "c again", "bad sku 1", "bad sku 2", "b"}, got)
	assert.Equal(t, int64(20), products[5].SKU)
	assert.Contains(t, logs.String(), `msg="stock: duplicate sku" sku=30 index=2`)
}

func TestRawProductAcceptsNumbers(t *testing.T) {
	payload := `[{"sku":100,"description":"RICE","emb1":5.5,"emb9":null,"supplier":"123"}]`
	var raws []RawProduct
	require.NoError(t, json.Unmarshal([]byte(payload), &raws))
	require.Len(t, raws, 1)
	assert.Equal(t, FlexString("100"), raws[0].SKU)
	assert.Equal(t, FlexString("5.5"), raws[0].Emb1)
	assert.Equal(t, FlexString(""), raws[0].Emb9)
}

func TestSupplierNames(t *testing.T) {
	products := []Product{{Supplier: "B Corp"}, {Supplier: "A Corp"}, {Supplier: "B Corp"}, {Supplier: ""}}
	assert.Equal(t, []string{"A Corp", "B Corp"}, SupplierNames(products))
}
