// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries external museum archive APIs and normalizes their
// records into the unified item shape. Each archive gets one Repository
// (HTTP, cancelable, typed errors) and a set of pure normalize functions;
// normalization never performs I/O and never fails on malformed input:
// a record that cannot be normalized is dropped.
package source

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/curio/internal/httputil"
	"github.com/pdiddy/curio/pkg/types"
)

// Tier classifies a source for the batching policy: fast sources answer
// one immediate capped page, slow sources are drained in sequential batches.
type Tier int

const (
	TierFast Tier = iota
	TierSlow
)

// Page bounds one search request.
type Page struct {
	Limit  int
	Offset int
}

// Batch is the normalized outcome of one search request. Total is the
// source's own count of matching records, which drives slow-source batch
// sizing; Items holds only records that survived normalization.
type Batch struct {
	Items []types.Item
	Total int
}

// Repository is one external archive. Search and GetRecord honor context
// cancellation; a canceled call returns an error satisfying IsCancellation
// and must not be surfaced to users as a failure.
type Repository interface {
	Name() string
	Tier() Tier
	Search(ctx context.Context, query string, page Page) (*Batch, error)
	GetRecord(ctx context.Context, id string) (*types.Item, error)
}

// ErrorKind classifies repository failures for the orchestrator's
// retry-or-warn decision.
type ErrorKind int

const (
	// KindTransient is a network-level failure worth one retry.
	KindTransient ErrorKind = iota
	// KindUpstream is a 4xx/5xx answer with a body; not retryable.
	KindUpstream
	// KindMalformed is an unparseable upstream payload; not retryable.
	KindMalformed
)

// SourceError is a classified failure from one archive.
type SourceError struct {
	Source string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *SourceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying within a batch.
func (e *SourceError) Retryable() bool {
	return e.Kind == KindTransient
}

// IsCancellation reports whether err stems from context cancellation or
// deadline expiry. Cancellations are discarded silently, never warned.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify wraps a transport-level error, preserving cancellation so the
// orchestrator can discard it.
func classify(source string, err error) error {
	if IsCancellation(err) {
		return err
	}
	return &SourceError{Source: source, Kind: KindTransient, Err: err}
}

// upstreamError builds the non-retryable error for a 4xx/5xx answer.
func upstreamError(source string, status int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200]
	}
	return &SourceError{
		Source: source,
		Kind:   KindUpstream,
		Status: status,
		Err:    fmt.Errorf("upstream rejected request: %s", body),
	}
}

// malformedError builds the error for an unparseable payload.
func malformedError(source string, err error) error {
	return &SourceError{Source: source, Kind: KindMalformed, Err: fmt.Errorf("parsing response: %w", err)}
}

// stripPolicy removes all markup; archives embed HTML freely in titles
// and descriptions.
var stripPolicy = bluemonday.StrictPolicy()

// StripMarkup removes HTML tags and entities from free text and collapses
// the remaining whitespace.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	clean := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// firstNonEmpty returns the first non-empty candidate, or "".
// Adapters express their field fallback chains with it: preferred form
// first, default-language variant next, any present value last.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// langFallback resolves a multilingual field map: English first, the
// source's "def" (undetermined language) bucket next, then any value.
func langFallback(m map[string][]string) string {
	for _, lang := range []string{"en", "eng", "def"} {
		if vals := m[lang]; len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	for _, vals := range m {
		if len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return ""
}

// send issues the request with rate-limit backoff and classifies transport
// failures. The caller checks the status and decodes the body.
func send(ctx context.Context, client *http.Client, source, rawURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, classify(source, err)
	}
	return resp, nil
}
