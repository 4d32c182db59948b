package suppliers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Source loads a reference table from wherever it is published.
type Source interface {
	Load(ctx context.Context) (Table, error)
}

// Load lets a fixed Table stand in as a Source.
func (t Table) Load(context.Context) (Table, error) {
	return t, nil
}

// FileSource reads the reference table from a local path.
type FileSource struct {
	Path string
}

// Load opens and parses the file.
func (s FileSource) Load(ctx context.Context) (Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// HTTPSource fetches the reference table as a static text resource.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource builds an HTTPSource with its own timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Load downloads and parses the table.
func (s *HTTPSource) Load(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrRead, resp.StatusCode)
	}
	return Parse(resp.Body)
}
