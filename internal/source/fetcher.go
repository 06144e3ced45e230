// Package source acquires the raw expense CSV text. It tries the
// configured live URL first and falls back to the embedded sample data
// after a fixed delay, mirroring the behavior the dashboard frontend
// has always had: best-effort live data, never a hard failure.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chefsight/assets"
	"chefsight/internal/core"
)

const (
	// SourceLive marks text fetched from the configured URL.
	SourceLive = "live"
	// SourceSample marks the embedded fallback dataset.
	SourceSample = "sample"

	maxBodySize = 8 << 20 // 8MB is far beyond any realistic expense CSV
)

type Fetcher struct {
	client        *http.Client
	url           string
	fallbackDelay time.Duration
}

// NewFetcher builds a fetcher for the given CSV URL. An empty URL means
// the fetcher always serves the embedded sample.
func NewFetcher(url string, fallbackDelay time.Duration) *Fetcher {
	return &Fetcher{
		client:        &http.Client{Timeout: 10 * time.Second},
		url:           url,
		fallbackDelay: fallbackDelay,
	}
}

// Fetch returns the raw CSV text and which source produced it. Live
// fetch errors, non-2xx responses, and live text that parses to zero
// records all fall back to the sample after the configured delay. The
// only error returned is context cancellation while waiting.
func (f *Fetcher) Fetch(ctx context.Context) (string, string, error) {
	if f.url == "" {
		return assets.SampleCSV, SourceSample, nil
	}

	text, err := f.fetchLive(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Live CSV fetch failed, falling back to sample data",
			"error", err, "url", f.url)
		return f.fallback(ctx)
	}

	if len(core.ParseRecords(text)) == 0 {
		slog.WarnContext(ctx, "Live CSV was found but empty, using sample data", "url", f.url)
		return assets.SampleCSV, SourceSample, nil
	}

	return text, SourceLive, nil
}

func (f *Fetcher) fetchLive(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch CSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch CSV: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read CSV body: %w", err)
	}

	return string(body), nil
}

func (f *Fetcher) fallback(ctx context.Context) (string, string, error) {
	if f.fallbackDelay > 0 {
		timer := time.NewTimer(f.fallbackDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-timer.C:
		}
	}
	return assets.SampleCSV, SourceSample, nil
}
