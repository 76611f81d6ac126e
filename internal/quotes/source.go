package quotes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/optionocean/internal/infra"
	"github.com/seenimoa/optionocean/pkg/models"
)

// ErrTooLarge is returned when a quote document exceeds the size limit.
var ErrTooLarge = errors.New("quote document exceeds size limit")

// ErrHTTP wraps a non-2xx response from a remote quote source.
type ErrHTTP struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("GET %s: HTTP %s: %s", e.URL, e.Status, e.Body)
}

// DefaultMaxBytes bounds a single quote document.
const DefaultMaxBytes int64 = 32 << 20

// Decode parses a quote document. HTML documents are converted with
// FromHTML first; everything else is treated as quote-table text.
func Decode(source string, body []byte, contentType string) (models.QuoteTable, error) {
	if looksLikeHTML(contentType, body) {
		text, err := FromHTML(bytes.NewReader(body))
		if err != nil {
			return models.QuoteTable{Source: source}, fmt.Errorf("decode %s: %w", source, err)
		}
		return Parse(source, text), nil
	}
	return Parse(source, string(body)), nil
}

// ReadAll reads at most limit bytes from r, failing with ErrTooLarge beyond it.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrTooLarge
	}
	return body, nil
}

// ReadFile loads and parses a quote file from disk.
func ReadFile(path string, limit int64) (models.QuoteTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.QuoteTable{Source: path}, fmt.Errorf("open quote file: %w", err)
	}
	defer f.Close()

	body, err := ReadAll(f, limit)
	if err != nil {
		return models.QuoteTable{Source: path}, fmt.Errorf("read %s: %w", path, err)
	}
	contentType := ""
	if ext := filepath.Ext(path); ext == ".html" || ext == ".htm" {
		contentType = "text/html"
	}
	return Decode(filepath.Base(path), body, contentType)
}

// LoadAll reads several quote files concurrently, preserving input order.
func LoadAll(ctx context.Context, paths []string, limit int64) ([]models.QuoteTable, error) {
	tables := make([]models.QuoteTable, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := ReadFile(p, limit)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// DefaultUserAgent is sent with remote fetches.
const DefaultUserAgent = "optionocean/1.0 (+quote-table fetcher)"

// Fetcher downloads quote documents over HTTP with a TTL cache and a
// request rate limit.
type Fetcher struct {
	// ChainBase is the option-chain root used by FetchChain.
	ChainBase string

	client  *http.Client
	cache   *infra.Cache[models.QuoteTable]
	limiter *infra.RateLimiter
	limit   int64
}

// NewFetcher creates a fetcher. A zero cacheTTL disables caching.
func NewFetcher(timeout, cacheTTL time.Duration, limit int64) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		ChainBase: ChainBaseURL,
		client:    &http.Client{Timeout: timeout},
		cache:     infra.NewCache[models.QuoteTable](cacheTTL),
		limiter:   infra.NewRateLimiter(2, time.Second),
		limit:     limit,
	}
}

// Fetch downloads and parses the quote document at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (models.QuoteTable, error) {
	if t, ok := f.cache.Get(url); ok {
		return t, nil
	}
	body, contentType, err := f.get(ctx, url, "text/csv, text/plain, text/html, */*")
	if err != nil {
		return models.QuoteTable{Source: url}, err
	}
	t, err := Decode(url, body, contentType)
	if err != nil {
		return t, err
	}
	f.store(url, t)
	return t, nil
}

// FetchChain downloads the delayed option chain for symbol and converts
// it with FromChain.
func (f *Fetcher) FetchChain(ctx context.Context, symbol string) (models.QuoteTable, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.QuoteTable{}, errors.New("symbol is required")
	}
	url := ChainURL(f.ChainBase, symbol)
	if t, ok := f.cache.Get(url); ok {
		return t, nil
	}
	body, _, err := f.get(ctx, url, "application/json")
	if err != nil {
		return models.QuoteTable{Source: symbol}, err
	}
	t, err := FromChain(symbol, bytes.NewReader(body))
	if err != nil {
		return t, err
	}
	f.store(url, t)
	return t, nil
}

// store caches t under url after evicting expired entries.
func (f *Fetcher) store(url string, t models.QuoteTable) {
	f.cache.Cleanup()
	f.cache.Set(url, t)
}

// get performs a rate-limited GET and returns the body within the size
// limit.
func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", &ErrHTTP{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := ReadAll(resp.Body, f.limit)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", url, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
