// Package export serializes the shaped stock rows into downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/isv-promotor/stockreview/internal/stock"
)

const (
	csvDelimiter  = ";"
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// Columns are the export header labels in order.
var Columns = []string{
	"Código", "Descrição", "Embalagem", "Fornecedor",
	"EMB1", "EMB9", "Idade", "Sem Venda", "Grupo",
}

// FileName returns estoque_export_<date>.<ext>.
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("estoque_export_%s.%s", now.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

// Row renders one product as export fields. Free-text fields are quoted.
func Row(p stock.Product) []string {
	return []string{
		strconv.FormatInt(p.SKU, 10),
		quote(p.Description),
		p.Packaging,
		quote(p.Supplier),
		formatNumber(p.Emb1),
		formatNumber(p.Emb9),
		formatNumber(p.Age),
		formatNumber(p.MissSale),
		p.Sector,
	}
}

// WriteCSV writes the header and one line per product, each ended by "\n".
func WriteCSV(w io.Writer, products []stock.Product) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	if err := writeLine(buf, Columns); err != nil {
		return err
	}
	for i, p := range products {
		if err := writeLine(buf, Row(p)); err != nil {
			return err
		}
		if (i+1)%csvFlushEvery == 0 {
			if err := buf.Flush(); err != nil {
				return err
			}
		}
	}
	return buf.Flush()
}

func writeLine(buf *bufio.Writer, fields []string) error {
	if _, err := buf.WriteString(strings.Join(fields, csvDelimiter)); err != nil {
		return err
	}
	return buf.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
