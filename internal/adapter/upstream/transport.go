package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// sentinelEmpty mirrors the upstream's "no data" body. Callers treat it
// identically to a successful empty result.
var sentinelEmpty = json.RawMessage(`{"count":0,"data":[]}`)

// transport performs a single HTTP GET with a per-attempt timeout and a
// bounded retry with linear backoff (attempt × base delay).
type transport struct {
	httpClient *http.Client
	retries    int
	backoff    time.Duration
}

func newTransport(retries int, backoff time.Duration) *transport {
	return &transport{
		httpClient: &http.Client{},
		retries:    retries,
		backoff:    backoff,
	}
}

func (t *transport) getJSON(ctx context.Context, url string, timeout time.Duration) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= t.retries+1; attempt++ {
		body, err := t.attempt(ctx, url, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt <= t.retries && !sleepWithContext(ctx, time.Duration(attempt)*t.backoff) {
			break
		}
	}
	return nil, lastErr
}

func (t *transport) attempt(ctx context.Context, url string, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	// 404 is the upstream's way of saying "no rows", e.g. a location that
	// has no events. Not an error.
	if resp.StatusCode == http.StatusNotFound {
		return sentinelEmpty, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return json.RawMessage(body), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
