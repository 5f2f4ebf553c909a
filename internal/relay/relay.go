// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relay is the same-origin pass-through proxy for archives that do
// not grant cross-origin access. It forwards query parameters and the
// response body verbatim, injecting the API credential server-side so the
// key never reaches clients.
package relay

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/curio/pkg/types"
)

// Handler forwards search requests to one upstream endpoint.
type Handler struct {
	upstream string
	apiKey   string
	client   *http.Client
	log      logrus.FieldLogger
}

// New builds a relay handler from cfg. The zero-value client timeout is
// 30 seconds.
func New(cfg types.RelayConfig, client *http.Client, log logrus.FieldLogger) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		upstream: cfg.UpstreamBase,
		apiKey:   cfg.APIKey,
		client:   client,
		log:      log,
	}
}

// ServeHTTP forwards GET requests: caller query parameters pass through
// untouched, the credential is added, and the upstream's status and body
// come back verbatim. Anything but GET is rejected.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	params.Set("wskey", h.apiKey)

	u, err := url.Parse(h.upstream)
	if err != nil {
		h.log.WithError(err).Error("invalid upstream URL")
		http.Error(w, "relay misconfigured", http.StatusInternalServerError)
		return
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		http.Error(w, "building upstream request failed", http.StatusInternalServerError)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.WithError(err).Warn("upstream request failed")
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.WithError(err).Debug("copying upstream body failed")
	}
}
