package upstream

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// strategy is one way of reaching the upstream API: a direct request or a
// request rewritten through a public CORS relay. Each strategy knows how to
// build its URL and how to recover the upstream JSON from the response.
type strategy struct {
	name     string
	timeout  time.Duration
	buildURL func(target string) string
	unwrap   func(body json.RawMessage) (json.RawMessage, error)
}

// defaultStrategies builds the direct strategy plus the relay strategies.
// Relay URLs get a cache-busting timestamp so stale relay caches cannot
// serve old payloads.
func defaultStrategies(directTimeout, proxyTimeout time.Duration) []strategy {
	return []strategy{
		{
			name:     "direct",
			timeout:  directTimeout,
			buildURL: func(target string) string { return target },
			unwrap:   unwrapIdentity,
		},
		{
			name:    "allorigins",
			timeout: proxyTimeout,
			buildURL: func(target string) string {
				return cacheBust("https://api.allorigins.win/get?url=" + url.QueryEscape(target))
			},
			unwrap: unwrapAllOrigins,
		},
		{
			name:    "corsproxy",
			timeout: proxyTimeout,
			buildURL: func(target string) string {
				return cacheBust("https://corsproxy.io/?" + url.QueryEscape(target))
			},
			unwrap: unwrapIdentity,
		},
	}
}

func cacheBust(u string) string {
	sep := "?"
	for _, r := range u {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return u + sep + "t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func unwrapIdentity(body json.RawMessage) (json.RawMessage, error) {
	return body, nil
}

// unwrapAllOrigins unpacks the allorigins envelope, which wraps the target's
// body as a JSON string: {"contents":"<json>","status":{...}}.
func unwrapAllOrigins(body json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode relay envelope: %w", err)
	}
	if envelope.Contents == "" {
		return nil, fmt.Errorf("relay envelope has no contents")
	}
	inner := json.RawMessage(envelope.Contents)
	if !json.Valid(inner) {
		return nil, fmt.Errorf("relay contents is not valid JSON")
	}
	return inner, nil
}
