package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/internal/stock"
	"github.com/isv-promotor/stockreview/internal/view"
	"github.com/isv-promotor/stockreview/report"
)

type fakeStore struct {
	mu        sync.Mutex
	snap      *stock.Snapshot
	err       error
	refreshes int
	reloads   int
}

func (f *fakeStore) Refresh(context.Context) (*stock.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.snap, f.err
}

func (f *fakeStore) Reload(context.Context) (*stock.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.snap, f.err
}

type stubPDF struct {
	html   []byte
	opts   report.PageOptions
	assets []report.Asset
	err    error
}

func (s *stubPDF) RenderHTML(_ context.Context, html []byte, opts report.PageOptions, assets ...report.Asset) ([]byte, error) {
	s.html = html
	s.opts = opts
	s.assets = assets
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7"), nil
}

type recordingObserver struct {
	products int
	err      error
	calls    int
}

func (o *recordingObserver) ObserveReload(products int, _ time.Time, err error) {
	o.calls++
	o.products = products
	o.err = err
}

var fixedNow = time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

func sampleSnapshot() *stock.Snapshot {
	return &stock.Snapshot{
		Products: []stock.Product{
			{SKU: 300, Description: "FEIJAO PRETO", Packaging: "FD", Supplier: "Zeta", Emb1: 4, Emb9: 1, Age: 12, MissSale: 9, Sector: "MERCEARIA"},
			{SKU: 100, Description: "ARROZ BRANCO", Packaging: "CX", Supplier: "Acme", Emb1: 5, Emb9: 1, Age: 10, MissSale: 2, Sector: "MERCEARIA"},
			{SKU: 200, Description: "DETERGENTE", Packaging: "UN", Supplier: "Acme Limpeza", Emb1: 8, Emb9: 2, Age: 30, MissSale: 4, Sector: "LIMPEZA"},
		},
		Suppliers: []string{"Acme", "Acme Limpeza", "Zeta"},
		DataStamp: "2026-03-09 06:30:00",
		LoadedAt:  fixedNow,
		Seq:       1,
	}
}

func newTestHandler(t *testing.T, store SnapshotStore, opts Options) *Handler {
	t.Helper()
	engine, err := view.NewEngine(language.BrazilianPortuguese)
	require.NoError(t, err)
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Store = store
	opts.Templates = engine
	opts.Pipeline = review.NewPipeline(language.BrazilianPortuguese)
	if opts.CSRF == nil {
		opts.CSRF = shared.NewCSRFManager("test-secret")
	}
	h := NewHandler(opts)
	h.WithNow(func() time.Time { return fixedNow })
	return h
}

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func serve(t *testing.T, r http.Handler, sess *shared.Session, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func storedState(t *testing.T, sess *shared.Session) review.State {
	t.Helper()
	state, err := review.DecodeState(sess.Get(shared.SessionKeyViewState), review.NewState(review.DefaultPageSize))
	require.NoError(t, err)
	return state
}

func TestDashboardRendersTable(t *testing.T) {
	store := &fakeStore{snap: sampleSnapshot()}
	r := newRouter(newTestHandler(t, store, Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "ARROZ BRANCO")
	assert.Contains(t, body, "FEIJAO PRETO")
	assert.Contains(t, body, "Resultados encontrados")
	assert.Contains(t, body, "09 de março de 2026")
	assert.Contains(t, body, "/export.csv?")
	assert.NotContains(t, body, "Nenhum produto encontrado")
	assert.Equal(t, 1, store.refreshes)
	assert.Equal(t, 1, storedState(t, sess).Page)
}

func TestDashboardFilterAndSortFromQuery(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodGet, "/?supplier=acme&sort=emb1&dir=desc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.NotContains(t, body, "FEIJAO PRETO")
	detergent := strings.Index(body, "DETERGENTE")
	rice := strings.Index(body, "ARROZ BRANCO")
	require.Positive(t, detergent)
	require.Positive(t, rice)
	assert.Less(t, detergent, rice, "emb1 desc puts 8 before 5")

	state := storedState(t, sess)
	assert.Equal(t, "acme", state.Supplier)
	assert.Equal(t, review.SortEmb1, state.Sort)
	assert.Equal(t, review.Desc, state.Dir)
}

func TestDashboardNoMatchesRow(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/?query=inexistente", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Nenhum produto encontrado com os filtros atuais.")
}

func TestDashboardUsesSessionStateWithoutParams(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))
	sess := &shared.Session{ID: "s1"}
	saved := review.NewState(review.DefaultPageSize).WithFilters("Zeta", "")
	payload, err := saved.EncodeJSON()
	require.NoError(t, err)
	sess.Set(shared.SessionKeyViewState, payload)

	rr := serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "FEIJAO PRETO")
	assert.NotContains(t, rr.Body.String(), "ARROZ BRANCO")
}

func TestDashboardFilterChangeResetsPage(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))
	sess := &shared.Session{ID: "s1"}
	saved := review.NewState(25).WithPage(3)
	payload, err := saved.EncodeJSON()
	require.NoError(t, err)
	sess.Set(shared.SessionKeyViewState, payload)

	rr := serve(t, r, sess, http.MethodGet, "/?query=arroz&page=3&size=25", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, storedState(t, sess).Page)
}

func TestDashboardInvalidStateIsRejected(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/?size=7", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Filtros inválidos.")
}

func TestDashboardBlockingErrorPanel(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("fetch: %w", stock.ErrSourceUnavailable)}
	r := newRouter(newTestHandler(t, store, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Servidor de dados indisponível.")
	assert.Contains(t, body, "Tentar novamente")
	assert.NotContains(t, body, "<table")
	assert.NotContains(t, body, "/export.csv")
}

// backend plays both the stamped source and the loader behind a real store.
type backend struct {
	mu    sync.Mutex
	stamp string
	err   error
	loads int
}

func (b *backend) Stamp(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stamp, b.err
}

func (b *backend) Load(context.Context) (*stock.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if b.err != nil {
		return nil, b.err
	}
	snap := sampleSnapshot()
	snap.Products = append(snap.Products, stock.Product{SKU: 900, Description: "LOTE " + b.stamp, Supplier: "Zeta"})
	return snap, nil
}

func (b *backend) set(stamp string, err error) {
	b.mu.Lock()
	b.stamp, b.err = stamp, err
	b.mu.Unlock()
}

func newBackendStore(b *backend) *stock.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stock.NewStore(b, logger).WithStamper(b)
}

func TestDashboardPicksUpNewStamp(t *testing.T) {
	b := &backend{stamp: "2026-03-08"}
	r := newRouter(newTestHandler(t, newBackendStore(b), Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 2026-03-08")

	rr = serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, b.loads)

	b.set("2026-03-09", nil)
	rr = serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 2026-03-09")
	assert.NotContains(t, rr.Body.String(), "LOTE 2026-03-08")
	assert.Equal(t, 2, b.loads)
}

func TestDashboardRetriesAfterFailedLoad(t *testing.T) {
	b := &backend{stamp: "2026-03-09", err: fmt.Errorf("fetch: %w", stock.ErrSourceUnavailable)}
	r := newRouter(newTestHandler(t, newBackendStore(b), Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	b.set("2026-03-09", nil)
	rr = serve(t, r, sess, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 2026-03-09")
	assert.Equal(t, 2, b.loads)
}

func TestExportFollowsNewStamp(t *testing.T) {
	b := &backend{stamp: "2026-03-08"}
	r := newRouter(newTestHandler(t, newBackendStore(b), Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodGet, "/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 2026-03-08")

	b.set("2026-03-09", nil)
	rr = serve(t, r, sess, http.MethodGet, "/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 2026-03-09")
}

func TestLoadErrorMessage(t *testing.T) {
	assert.Equal(t, "O servidor de dados respondeu com erro.", loadErrorMessage(fmt.Errorf("x: %w", stock.ErrBadStatus)))
	assert.Equal(t, "Tempo esgotado ao consultar o estoque.", loadErrorMessage(context.DeadlineExceeded))
	assert.Equal(t, "Erro inesperado ao carregar o estoque.", loadErrorMessage(errors.New("boom")))
}

func TestExportCSV(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/export.csv?supplier=acme&sort=sku&page=1&size=25", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="estoque_export_2026-03-09.csv"`, rr.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Código;Descrição;Embalagem;Fornecedor;EMB1;EMB9;Idade;Sem Venda;Grupo", lines[0])
	assert.Equal(t, `100;"ARROZ BRANCO";CX;"Acme";5;1;10;2;MERCEARIA`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "200;"))
}

func TestExportCSVIgnoresPagination(t *testing.T) {
	snap := sampleSnapshot()
	for i := 0; i < 60; i++ {
		snap.Products = append(snap.Products, stock.Product{SKU: int64(1000 + i), Description: "ITEM", Supplier: "Bulk"})
	}
	r := newRouter(newTestHandler(t, &fakeStore{snap: snap}, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/export.csv?supplier=bulk&page=2&size=25", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	assert.Len(t, lines, 61)
}

func TestExportFailsWithProblemWhenSourceDown(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("fetch: %w", stock.ErrBadStatus)}
	r := newRouter(newTestHandler(t, store, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/export.xlsx", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, "Stock Unavailable", problem["title"])
}

func TestExportXLSX(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, nil, http.MethodGet, "/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "estoque_export_2026-03-09.xlsx")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestPrintListsEveryFilteredRow(t *testing.T) {
	snap := sampleSnapshot()
	for i := 0; i < 30; i++ {
		snap.Products = append(snap.Products, stock.Product{SKU: int64(5000 + i), Description: fmt.Sprintf("LOTE %02d", i), Supplier: "Bulk"})
	}
	r := newRouter(newTestHandler(t, &fakeStore{snap: snap}, Options{}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/print?supplier=bulk&size=25", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOTE 00")
	assert.Contains(t, rr.Body.String(), "LOTE 29")
	assert.Contains(t, rr.Body.String(), "/static/css/print.css")
}

func TestPrintPDF(t *testing.T) {
	pdf := &stubPDF{}
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{PDF: pdf}))

	rr := serve(t, r, &shared.Session{ID: "s1"}, http.MethodGet, "/print.pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "estoque_export_2026-03-09.pdf")
	assert.Equal(t, "%PDF-1.7", rr.Body.String())

	assert.True(t, pdf.opts.Landscape)
	require.Len(t, pdf.assets, 1)
	assert.Equal(t, printStylesheet, pdf.assets[0].Name)
	assert.NotEmpty(t, pdf.assets[0].Content)
	assert.Contains(t, string(pdf.html), "ARROZ BRANCO")
	assert.Contains(t, string(pdf.html), `href="print.css"`)
}

func TestPrintPDFRendererFailure(t *testing.T) {
	pdf := &stubPDF{err: report.ErrRender}
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{PDF: pdf}))

	rr := serve(t, r, nil, http.MethodGet, "/print.pdf", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestPrintPDFWithoutRenderer(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, nil, http.MethodGet, "/print.pdf", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestReloadRedirectsWithFlash(t *testing.T) {
	store := &fakeStore{snap: sampleSnapshot()}
	observer := &recordingObserver{}
	r := newRouter(newTestHandler(t, store, Options{Observer: observer}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodPost, "/reload", url.Values{"return_to": {"/?page=2"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?page=2", rr.Header().Get("Location"))
	assert.Equal(t, 1, store.reloads)
	assert.Equal(t, 1, observer.calls)
	assert.Equal(t, 3, observer.products)
	assert.NoError(t, observer.err)

	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Kind)
}

func TestReloadFailureFlashesError(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("fetch: %w", stock.ErrSourceUnavailable)}
	observer := &recordingObserver{}
	r := newRouter(newTestHandler(t, store, Options{Observer: observer}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodPost, "/reload", url.Values{"return_to": {"//evil.example"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.ErrorIs(t, observer.err, stock.ErrSourceUnavailable)

	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
	assert.Equal(t, "Servidor de dados indisponível.", flash.Message)
}

func TestThemeToggle(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))
	sess := &shared.Session{ID: "s1"}

	rr := serve(t, r, sess, http.MethodPost, "/theme", url.Values{"return_to": {"/print"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/print", rr.Header().Get("Location"))
	assert.Equal(t, shared.ThemeDark, sess.Theme())

	rr = serve(t, r, sess, http.MethodGet, "/", nil)
	assert.Contains(t, rr.Body.String(), `data-theme="dark"`)

	serve(t, r, sess, http.MethodPost, "/theme", url.Values{})
	assert.Equal(t, shared.ThemeLight, sess.Theme())
}

func TestSuggestSuppliers(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{}))

	rr := serve(t, r, nil, http.MethodGet, "/api/suppliers/suggest?term=acm", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var names []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &names))
	assert.Equal(t, []string{"Acme", "Acme Limpeza"}, names)
}

func TestProductsAPI(t *testing.T) {
	raw := stock.SourceFunc(func(context.Context) ([]stock.RawProduct, error) {
		return []stock.RawProduct{{SKU: "100", Description: "ARROZ", Emb1: "5"}}, nil
	})
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{Raw: raw}))

	rr := serve(t, r, nil, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0]["sku"])
	assert.Equal(t, "5", rows[0]["emb1"])
}

func TestProductsAPIEmptyAndFailure(t *testing.T) {
	empty := stock.SourceFunc(func(context.Context) ([]stock.RawProduct, error) { return nil, nil })
	r := newRouter(newTestHandler(t, &fakeStore{}, Options{Raw: empty}))
	rr := serve(t, r, nil, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	failing := stock.SourceFunc(func(context.Context) ([]stock.RawProduct, error) {
		return nil, fmt.Errorf("fetch: %w", stock.ErrSourceUnavailable)
	})
	r = newRouter(newTestHandler(t, &fakeStore{}, Options{Raw: failing}))
	rr = serve(t, r, nil, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExportRateLimit(t *testing.T) {
	r := newRouter(newTestHandler(t, &fakeStore{snap: sampleSnapshot()}, Options{ExportsPerMinute: 2}))
	sess := &shared.Session{ID: "limited"}

	for i := 0; i < 2; i++ {
		rr := serve(t, r, sess, http.MethodGet, "/export.csv", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := serve(t, r, sess, http.MethodGet, "/export.csv", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = serve(t, r, &shared.Session{ID: "other"}, http.MethodGet, "/export.csv", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSafeReturn(t *testing.T) {
	assert.Equal(t, "/", safeReturn(""))
	assert.Equal(t, "/", safeReturn("https://evil.example"))
	assert.Equal(t, "/", safeReturn("//evil.example"))
	assert.Equal(t, "/", safeReturn(`/\evil.example`))
	assert.Equal(t, "/?page=3", safeReturn("/?page=3"))
}
