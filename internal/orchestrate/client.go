// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// HTTPSubmitter posts batches to a running submission endpoint.
type HTTPSubmitter struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPSubmitter returns a submitter for the endpoint base URL.
func NewHTTPSubmitter(endpoint string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Endpoint: strings.TrimRight(endpoint, "/"),
		// Sequential analysis of a large batch takes minutes.
		Client: &http.Client{Timeout: 30 * time.Minute},
	}
}

func (h *HTTPSubmitter) client() *http.Client {
	if h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}

// Submit posts recs and decodes the per-item results. An unreachable
// endpoint or an unexpected status is a *types.TransportError; a 400 is
// decoded like a 200 so the validation diagnostic reaches the caller.
func (h *HTTPSubmitter) Submit(ctx context.Context, recs []types.RawRecord) ([]types.ItemResult, error) {
	target := h.Endpoint + "/api/bookmarks"
	body, err := json.Marshal(types.SubmitRequest{Bookmarks: recs})
	if err != nil {
		return nil, fmt.Errorf("marshaling batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, &types.TransportError{Target: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, &types.TransportError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &types.TransportError{
			Target: target,
			Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var out types.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &types.TransportError{Target: target, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out.Results, nil
}

// Health checks the endpoint's liveness probe.
func (h *HTTPSubmitter) Health(ctx context.Context) error {
	target := h.Endpoint + "/health"
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &types.TransportError{Target: target, Err: err}
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return &types.TransportError{Target: target, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &types.TransportError{Target: target, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}
