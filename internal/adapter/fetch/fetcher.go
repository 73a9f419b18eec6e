package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/kotoba-decks/pkg/ctxutil"
)

const (
	defaultHTTPTimeout = 10 * time.Minute
	defaultFTPTimeout  = 30 * time.Second
)

// Fetcher fills a Cache from HTTP(S) and anonymous FTP sources.
// Failures are returned as-is; there are no retries.
type Fetcher struct {
	cache      *Cache
	httpClient *http.Client
	dialFTP    ftpDialer
	log        *slog.Logger
}

// NewFetcher creates a Fetcher with default HTTP and FTP clients.
func NewFetcher(cache *Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cache:      cache,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		dialFTP:    dialJLaffaye(defaultFTPTimeout),
		log:        logger.With("adapter", "fetch"),
	}
}

// NewFetcherWithClient creates a Fetcher using a custom HTTP client (for testing).
func NewFetcherWithClient(cache *Cache, client *http.Client, logger *slog.Logger) *Fetcher {
	f := NewFetcher(cache, logger)
	f.httpClient = client
	return f
}

// EnsureHTTP downloads url into the cache as name unless it is already
// present, and returns the cached path.
func (f *Fetcher) EnsureHTTP(ctx context.Context, url, name string) (string, error) {
	return f.ensure(ctx, name, url, func(ctx context.Context) (io.ReadCloser, error) {
		return f.openHTTP(ctx, url)
	})
}

// EnsureFTP downloads src anonymously into the cache as name unless it is
// already present, and returns the cached path.
func (f *Fetcher) EnsureFTP(ctx context.Context, src FTPSource, name string) (string, error) {
	return f.ensure(ctx, name, src.String(), func(ctx context.Context) (io.ReadCloser, error) {
		return f.openFTP(ctx, src)
	})
}

func (f *Fetcher) ensure(ctx context.Context, name, origin string, open func(context.Context) (io.ReadCloser, error)) (string, error) {
	path := f.cache.Path(name)

	exists, err := f.cache.Exists(name)
	if err != nil {
		return "", err
	}
	log := f.logFor(ctx)
	if exists {
		log.InfoContext(ctx, "cache hit, skipping download", slog.String("file", path))
		return path, nil
	}

	log.InfoContext(ctx, "downloading", slog.String("source", origin), slog.String("file", path))
	start := time.Now()

	body, err := open(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", origin, err)
	}
	defer body.Close()

	n, err := f.cache.store(name, body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", origin, err)
	}

	log.InfoContext(ctx, "saved",
		slog.String("file", path),
		slog.Int64("bytes", n),
		slog.Duration("duration", time.Since(start)),
	)
	return path, nil
}

// logFor tags log lines with the run and phase carried by ctx.
func (f *Fetcher) logFor(ctx context.Context) *slog.Logger {
	log := f.log
	if runID, ok := ctxutil.RunIDFromCtx(ctx); ok {
		log = log.With(slog.String("run_id", runID.String()))
	}
	if phase := ctxutil.PhaseFromCtx(ctx); phase != "" {
		log = log.With(slog.String("phase", phase))
	}
	return log
}

func (f *Fetcher) openHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
