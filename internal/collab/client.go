package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// #region base-client

// client is the shared JSON-over-HTTP transport for all collaborator
// services. Every call carries the per-call budget as a context deadline.
type client struct {
	service string
	baseURL string
	budget  time.Duration
	hc      *http.Client
}

func newClient(service, baseURL string, budget time.Duration) client {
	return client{
		service: service,
		baseURL: baseURL,
		budget:  budget,
		hc:      &http.Client{Timeout: budget},
	}
}

// postJSON posts the request body and decodes the response into out. Budget
// exhaustion surfaces as CollaboratorTimeoutError so callers can distinguish
// a slow collaborator from a broken one.
func (c client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.service, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &CollaboratorTimeoutError{Service: c.service, Budget: c.budget, Err: err}
		}
		return fmt.Errorf("%s: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Service: c.service, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return nil
}

func (c client) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &CollaboratorTimeoutError{Service: c.service, Budget: c.budget, Err: err}
		}
		return fmt.Errorf("%s: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Service: c.service, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// #endregion base-client
