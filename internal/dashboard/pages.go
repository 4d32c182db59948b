package dashboard

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/isv-promotor/stockreview/internal/export"
	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/internal/view"
	"github.com/isv-promotor/stockreview/report"
	"github.com/isv-promotor/stockreview/web"
)

const printStylesheet = "print.css"

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.resolveState(r, sess)
	if err != nil {
		h.logger.Info("reject view state", slog.String("query", r.URL.RawQuery), slog.Any("error", err))
		h.renderError(w, r, http.StatusBadRequest, "Filtros inválidos.")
		return
	}

	page := dashboardPage{State: state, PageSizes: review.PageSizes}
	status := http.StatusOK
	var exports *view.ExportLinks
	snap, err := h.snapshot(r)
	if err != nil {
		h.logError("load snapshot", err)
		page.Error = loadErrorMessage(err)
		status = http.StatusServiceUnavailable
	} else {
		res := h.pipeline.Apply(snap.Products, state)
		page.State = res.State
		page.Result = res
		page.Pager = shared.NewPagination(res.State.Page, res.Pages, res.State.Size, res.Filtered)
		page.DataStamp = snap.DataStamp
	}
	page.Columns = buildColumns(page.State)
	page.Links = buildLinks(page.State)
	if page.Error == "" {
		exports = buildExports(page.State)
	}
	h.saveState(sess, page.State)
	h.render(w, r, status, "pages/dashboard.html", page, exports)
}

// shape resolves state for an export-style request and returns every
// matching row. ok is false once a response has been written.
func (h *Handler) shape(w http.ResponseWriter, r *http.Request) (review.Result, string, bool) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.resolveState(r, sess)
	if err != nil {
		http.Error(w, "filtros inválidos", http.StatusBadRequest)
		return review.Result{}, "", false
	}
	snap, err := h.snapshot(r)
	if err != nil {
		h.problemForLoadError(w, err)
		return review.Result{}, "", false
	}
	return h.pipeline.Apply(snap.Products, state), snap.DataStamp, true
}

func (h *Handler) printData(res review.Result, stamp string, interactive bool) printPage {
	stylesheet := "/static/css/print.css"
	if !interactive {
		stylesheet = printStylesheet
	}
	return printPage{
		State:       res.State,
		Result:      res,
		Columns:     buildColumns(res.State),
		DataStamp:   stamp,
		Stylesheet:  stylesheet,
		Interactive: interactive,
	}
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	res, stamp, ok := h.shape(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/print.html", h.printData(res, stamp, true), nil)
}

func (h *Handler) handlePrintPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, "PDF indisponível", http.StatusServiceUnavailable)
		return
	}
	res, stamp, ok := h.shape(w, r)
	if !ok {
		return
	}

	var html bytes.Buffer
	td := h.templateData(r, nil, h.printData(res, stamp, false))
	if err := h.templates.Execute(&html, "pages/print.html", td); err != nil {
		h.handleServerError(w, "render print html", err)
		return
	}
	css, err := web.PrintStylesheet()
	if err != nil {
		h.handleServerError(w, "read print stylesheet", err)
		return
	}
	ctx, cancel := h.loadContext(r)
	defer cancel()
	pdf, err := h.pdf.RenderHTML(ctx, html.Bytes(), report.PageOptions{Landscape: true},
		report.Asset{Name: printStylesheet, Content: css})
	if err != nil {
		h.logError("render pdf", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.FileName(h.now(), "pdf")))
	if _, err := w.Write(pdf); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := h.loadContext(r)
	defer cancel()

	snap, err := h.store.Reload(ctx)
	if h.observer != nil {
		products := 0
		loadedAt := h.now()
		if snap != nil {
			products = len(snap.Products)
			loadedAt = snap.LoadedAt
		}
		h.observer.ObserveReload(products, loadedAt, err)
	}
	if sess != nil {
		if err != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: loadErrorMessage(err)})
		} else {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Dados recarregados."})
		}
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return_to")), http.StatusSeeOther)
}

func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetTheme(sess.Theme().Toggle())
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return_to")), http.StatusSeeOther)
}
