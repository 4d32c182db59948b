package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/isv-promotor/stockreview/internal/export"
	"github.com/isv-promotor/stockreview/internal/stock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "xlsx", xlsxContentType, export.WriteXLSX)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []stock.Product) error) {
	res, _, ok := h.shape(w, r)
	if !ok {
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()

	if err := write(buf, res.All); err != nil {
		h.handleServerError(w, "write "+ext, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.FileName(h.now(), ext)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream "+ext, err)
	}
}
