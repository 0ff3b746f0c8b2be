// Package auth resolves bearer tokens to usernames through an external
// account service. Only the Resolver contract matters to the rest of the
// registry; handlers never see tokens after resolution.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// Resolver turns a bearer token into the username it belongs to. A failed
// resolution returns an error wrapping errdefs.ErrUnauthorized.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

const defaultTimeout = 10 * time.Second

// HTTPResolver resolves tokens against an account service's "me" endpoint.
// The endpoint is expected to answer a bearer-authorized GET with
// {"success": {"email": ...}}; the email serves as the username.
type HTTPResolver struct {
	endpoint string
	client   *http.Client
}

// NewHTTPResolver returns a resolver calling the given "me" endpoint. A nil
// client gets a default one with a request timeout.
func NewHTTPResolver(endpoint string, client *http.Client) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPResolver{endpoint: endpoint, client: client}
}

type meResponse struct {
	Success struct {
		Email string `json:"email"`
	} `json:"success"`
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errdefs.Newf(errdefs.ErrUnauthorized, "no bearer token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errdefs.Newf(errdefs.ErrUnauthorized, "account service rejected the token with status %d", resp.StatusCode)
	}
	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	if me.Success.Email == "" {
		return "", errdefs.Newf(errdefs.ErrUnauthorized, "account service returned no identity")
	}
	return me.Success.Email, nil
}

// Static resolves every listed token to a fixed username. Tests use it in
// place of the account service.
type Static map[string]string

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, token string) (string, error) {
	username, ok := s[token]
	if !ok {
		return "", errdefs.Newf(errdefs.ErrUnauthorized, "unknown token")
	}
	return username, nil
}
