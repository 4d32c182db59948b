package dashboard

import (
	"net/http"

	"github.com/isv-promotor/stockreview/internal/platform/httpx"
	"github.com/isv-promotor/stockreview/internal/stock"
	"github.com/isv-promotor/stockreview/internal/suppliers"
)

// handleProducts serves the raw backend rows as a JSON array.
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if h.raw == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Source Not Configured", "")
		return
	}
	ctx, cancel := h.loadContext(r)
	defer cancel()
	raws, err := h.raw.Fetch(ctx)
	if err != nil {
		h.problemForLoadError(w, err)
		return
	}
	if raws == nil {
		raws = []stock.RawProduct{}
	}
	httpx.JSON(w, http.StatusOK, raws)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.problemForLoadError(w, err)
		return
	}
	names := suppliers.Suggest(snap.Suppliers, r.URL.Query().Get("term"), suppliers.DefaultSuggestLimit)
	httpx.JSON(w, http.StatusOK, names)
}
