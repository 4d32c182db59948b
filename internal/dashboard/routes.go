package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/isv-promotor/stockreview/internal/shared"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleDashboard)
	r.Get("/print", h.handlePrint)
	r.Post("/theme", h.handleTheme)
	r.Get("/api/suppliers/suggest", h.handleSuggest)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/print.pdf", h.handlePrintPDF)
		gr.Get("/export.csv", h.handleCSV)
		gr.Get("/export.xlsx", h.handleXLSX)
		gr.Get("/api/products", h.handleProducts)
		gr.Post("/reload", h.handleReload)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.ID != "" {
		return "session:" + sess.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
