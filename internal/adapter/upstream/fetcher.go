package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// Options configures the multi-strategy fetcher.
type Options struct {
	BaseURL       string
	DirectTimeout time.Duration
	ProxyTimeout  time.Duration
	Retries       int
	Backoff       time.Duration
}

// Fetcher retrieves JSON documents from the upstream data API. Every fetch
// races a direct request against the proxy relays; the first strategy to
// succeed wins and the rest are cancelled. When all strategies fail the
// fetcher returns the empty-result sentinel instead of an error, so callers
// see "no data" and "network down" identically.
type Fetcher struct {
	baseURL    string
	transport  *transport
	strategies []strategy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher with the default strategy set.
func NewFetcher(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		baseURL:    opts.BaseURL,
		transport:  newTransport(opts.Retries, opts.Backoff),
		strategies: defaultStrategies(opts.DirectTimeout, opts.ProxyTimeout),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchJSON fetches an endpoint and returns its parsed JSON body. It never
// returns an error; total failure degrades to the empty-result sentinel.
// With silent set, strategy failures are not logged (used for endpoints
// where empty answers are routine).
func (f *Fetcher) FetchJSON(ctx context.Context, endpoint string, silent bool) json.RawMessage {
	target := f.baseURL + endpoint

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		name string
		body json.RawMessage
		err  error
	}
	// Buffered so losing strategies never block after the winner returns.
	results := make(chan outcome, len(f.strategies))
	for _, s := range f.strategies {
		go func(s strategy) {
			body, err := f.runStrategy(ctx, s, target)
			results <- outcome{name: s.name, body: body, err: err}
		}(s)
	}

	for range f.strategies {
		r := <-results
		if r.err == nil {
			return r.body
		}
		if !silent && !errors.Is(r.err, context.Canceled) {
			f.logger.Warn("fetch strategy failed",
				"endpoint", endpoint,
				"strategy", r.name,
				"error", r.err,
			)
		}
	}

	f.metrics.UpstreamFallback.Inc()
	if !silent {
		f.logger.Warn("all fetch strategies failed, returning empty result", "endpoint", endpoint)
	}
	return sentinelEmpty
}

func (f *Fetcher) runStrategy(ctx context.Context, s strategy, target string) (json.RawMessage, error) {
	start := time.Now()
	body, err := f.transport.getJSON(ctx, s.buildURL(target), s.timeout)
	if err == nil {
		body, err = s.unwrap(body)
	}
	f.metrics.UpstreamDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		f.metrics.UpstreamRequests.WithLabelValues(s.name, "success").Inc()
	case errors.Is(err, context.Canceled):
		f.metrics.UpstreamRequests.WithLabelValues(s.name, "canceled").Inc()
	default:
		f.metrics.UpstreamRequests.WithLabelValues(s.name, "error").Inc()
	}
	return body, err
}

// ExtractRows returns the row list from an upstream payload, which is either
// a bare JSON array or an object carrying the rows in a "data" field.
// Anything else yields no rows.
func ExtractRows(msg json.RawMessage) []json.RawMessage {
	if len(msg) == 0 {
		return nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(msg, &rows); err == nil {
		return rows
	}

	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &wrapped); err == nil {
		return wrapped.Data
	}
	return nil
}
