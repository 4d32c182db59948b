// Package dashboard serves the stock review pages, exports and JSON helpers.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/isv-promotor/stockreview/internal/platform/httpx"
	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/internal/stock"
	"github.com/isv-promotor/stockreview/internal/view"
	"github.com/isv-promotor/stockreview/report"
)

// DefaultTitle is the page title used across the dashboard.
const DefaultTitle = "ISV Promotor"

const defaultLoadTimeout = 30 * time.Second

// SnapshotStore provides the applied stock snapshot.
type SnapshotStore interface {
	Refresh(ctx context.Context) (*stock.Snapshot, error)
	Reload(ctx context.Context) (*stock.Snapshot, error)
}

// PDFRenderer turns an HTML page into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte, opts report.PageOptions, assets ...report.Asset) ([]byte, error)
}

// ReloadObserver is notified after each user reload.
type ReloadObserver interface {
	ObserveReload(products int, loadedAt time.Time, err error)
}

// Options configures a Handler.
type Options struct {
	Logger    *slog.Logger
	Store     SnapshotStore
	Raw       stock.Source
	Templates *view.Engine
	Pipeline  *review.Pipeline
	CSRF      *shared.CSRFManager
	PDF       PDFRenderer
	Observer  ReloadObserver
	Title     string
	PageSize  int
	// ExportsPerMinute caps export, print and reload requests per session.
	ExportsPerMinute int
	LoadTimeout      time.Duration
}

// Handler coordinates HTTP requests for the stock review dashboard.
type Handler struct {
	logger      *slog.Logger
	store       SnapshotStore
	raw         stock.Source
	templates   *view.Engine
	pipeline    *review.Pipeline
	csrf        *shared.CSRFManager
	pdf         PDFRenderer
	observer    ReloadObserver
	title       string
	pageSize    int
	exportLimit int
	loadTimeout time.Duration
	bufPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the dashboard handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		logger:      opts.Logger,
		store:       opts.Store,
		raw:         opts.Raw,
		templates:   opts.Templates,
		pipeline:    opts.Pipeline,
		csrf:        opts.CSRF,
		pdf:         opts.PDF,
		observer:    opts.Observer,
		title:       opts.Title,
		pageSize:    opts.PageSize,
		exportLimit: opts.ExportsPerMinute,
		loadTimeout: opts.LoadTimeout,
		now:         time.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.title == "" {
		h.title = DefaultTitle
	}
	if !review.ValidPageSize(h.pageSize) {
		h.pageSize = review.DefaultPageSize
	}
	if h.exportLimit <= 0 {
		h.exportLimit = 20
	}
	if h.loadTimeout <= 0 {
		h.loadTimeout = defaultLoadTimeout
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// loadContext detaches loads from request cancellation.
func (h *Handler) loadContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.loadTimeout)
}

func (h *Handler) snapshot(r *http.Request) (*stock.Snapshot, error) {
	ctx, cancel := h.loadContext(r)
	defer cancel()
	snap, err := h.store.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &stock.Snapshot{}
	}
	return snap, nil
}

// resolveState merges the session view state with the URL. The URL wins when
// it carries any view parameter.
func (h *Handler) resolveState(r *http.Request, sess *shared.Session) (review.State, error) {
	def := review.NewState(h.pageSize)
	prev, err := review.DecodeState(sess.Get(shared.SessionKeyViewState), def)
	if err != nil {
		h.logger.Warn("discard stored view state", slog.Any("error", err))
		prev = def
	}
	query := r.URL.Query()
	if !review.HasParams(query) {
		return prev, nil
	}
	next, err := review.ParseQuery(query)
	if err != nil {
		return prev, err
	}
	return review.Reconcile(prev, next), nil
}

func (h *Handler) saveState(sess *shared.Session, state review.State) {
	if sess == nil {
		return
	}
	payload, err := state.EncodeJSON()
	if err != nil {
		h.logger.Warn("encode view state", slog.Any("error", err))
		return
	}
	sess.Set(shared.SessionKeyViewState, payload)
}

func (h *Handler) templateData(r *http.Request, sess *shared.Session, data any) view.TemplateData {
	td := view.TemplateData{
		Title:       h.title,
		CurrentPath: r.URL.RequestURI(),
		Theme:       shared.ThemeLight,
		Data:        data,
	}
	if sess != nil {
		td.Theme = sess.Theme()
		td.Flash = sess.PopFlash()
		if h.csrf != nil {
			if token, err := h.csrf.EnsureToken(sess); err == nil {
				td.CSRFToken = token
			}
		}
	}
	return td
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, exports *view.ExportLinks) {
	sess := shared.SessionFromContext(r.Context())
	td := h.templateData(r, sess, data)
	td.Exports = exports
	if err := h.templates.RenderStatus(w, status, name, td); err != nil {
		h.handleServerError(w, "render "+name, err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "pages/error.html", map[string]any{"Message": message}, nil)
}

// loadErrorMessage turns a load failure into the text shown on the blocking panel.
func loadErrorMessage(err error) string {
	switch {
	case errors.Is(err, stock.ErrBadStatus):
		return "O servidor de dados respondeu com erro."
	case errors.Is(err, context.DeadlineExceeded):
		return "Tempo esgotado ao consultar o estoque."
	case errors.Is(err, stock.ErrSourceUnavailable):
		return "Servidor de dados indisponível."
	default:
		return "Erro inesperado ao carregar o estoque."
	}
}

func (h *Handler) problemForLoadError(w http.ResponseWriter, err error) {
	h.logError("load snapshot", err)
	httpx.Problem(w, http.StatusServiceUnavailable, "Stock Unavailable", loadErrorMessage(err))
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if err == nil {
		return
	}
	h.logger.Error("dashboard: "+context, slog.Any("error", err))
}

// safeReturn keeps redirects on this site.
func safeReturn(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
