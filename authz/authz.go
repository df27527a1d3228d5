// Package authz provides the yes/no gate a transfer must pass before it
// commits.
package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Authorizer interface {
	Authorize(ctx context.Context) (bool, error)
}

// Static always returns the same decision.
type Static bool

func (s Static) Authorize(ctx context.Context) (bool, error) {
	return bool(s), nil
}

// HTTPAuthorizer asks an external service. The service answers with
// {"authorized": bool}; a 403 is read as a refusal.
type HTTPAuthorizer struct {
	url    string
	client *http.Client
}

func NewHTTPAuthorizer(url string, timeout time.Duration) *HTTPAuthorizer {
	return &HTTPAuthorizer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type decision struct {
	Authorized *bool `json:"authorized"`
}

func (a *HTTPAuthorizer) Authorize(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build authorization request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("authorization service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("authorization service returned status %d", resp.StatusCode)
	}

	var d decision
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&d); err != nil {
		return false, fmt.Errorf("failed to decode authorization response: %w", err)
	}
	if d.Authorized == nil {
		return false, fmt.Errorf("authorization response has no decision")
	}
	return *d.Authorized, nil
}
