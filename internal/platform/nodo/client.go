// Package nodo is the REST client for the NODO data-management API, the
// upstream source of vault activity rows, per-wallet holding stats, and LP
// pool allocations.
package nodo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nodoventures/vaultsight/internal/crypto"
	"github.com/nodoventures/vaultsight/internal/domain"
)

// Client is the REST client for the data-management API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.RequestAuth
}

// New creates a data-management API client.
//
// baseURL is the API root, e.g. "https://api.nodo.xyz". auth may be nil, in
// which case requests go out unsigned (the external endpoints accept both).
func New(baseURL string, auth *crypto.RequestAuth) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth: auth,
	}
}

var _ domain.ActivitySource = (*Client)(nil)
var _ domain.HoldingSource = (*Client)(nil)
var _ domain.BreakdownSource = (*Client)(nil)

// FetchActivities returns one page of position requests for a vault.
func (c *Client) FetchActivities(ctx context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	params := url.Values{}
	params.Set("vault_id", q.VaultID)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.ActionType != "" {
		params.Set("action_type", string(q.ActionType))
	}
	if q.TimeRange != "" {
		params.Set("time_range", string(q.TimeRange))
	}

	path := "/data-management/external/position-requests?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.ActivityPage{}, fmt.Errorf("nodo: fetch activities: %w", err)
	}

	var page APIActivityPage
	if err := json.Unmarshal(body, &page); err != nil {
		return domain.ActivityPage{}, fmt.Errorf("nodo: decode activities: %w", err)
	}

	out := domain.ActivityPage{Total: page.Data.Total}
	out.List = make([]domain.Transaction, 0, len(page.Data.List))
	for i := range page.Data.List {
		out.List = append(out.List, page.Data.List[i].ToDomain())
	}
	return out, nil
}

// FetchHolding returns the holding snapshot for one wallet in a vault.
func (c *Client) FetchHolding(ctx context.Context, vaultID, wallet string) (domain.HoldingStats, error) {
	params := url.Values{}
	params.Set("vault_id", vaultID)
	params.Set("wallet", wallet)

	path := "/data-management/external/vault-stats?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.HoldingStats{}, fmt.Errorf("nodo: fetch holding %s: %w", vaultID, err)
	}

	var stats APIVaultStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return domain.HoldingStats{}, fmt.Errorf("nodo: decode vault stats: %w", err)
	}

	return stats.ToDomain(vaultID, time.Now().UTC()), nil
}

// FetchBreakdown returns the current pool allocation for a vault.
func (c *Client) FetchBreakdown(ctx context.Context, vaultID string) ([]domain.BreakdownSlice, error) {
	params := url.Values{}
	params.Set("vault_id", vaultID)

	path := "/data-management/external/lp-breakdown?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("nodo: fetch breakdown %s: %w", vaultID, err)
	}

	var bd APILPBreakdown
	if err := json.Unmarshal(body, &bd); err != nil {
		return nil, fmt.Errorf("nodo: decode breakdown: %w", err)
	}
	return bd.ToDomain(), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends a GET request, signing it when credentials are configured.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.auth != nil {
		for k, v := range c.auth.Headers(http.MethodGet, path, "") {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
