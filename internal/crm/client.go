// Package crm talks to the CRM's REST API: authorized requests with the
// single 401-refresh-retry contract, cached field metadata, and the per
// entity update adapters that drive payload assembly.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/rs/zerolog/log"
)

// ErrAuth marks an authorization failure that survived the one allowed
// token refresh. It is never retried further.
var ErrAuth = errors.New("crm: authorization failed")

type Client struct {
	baseURL      string
	httpClient   *http.Client
	baseTokens   oauth2.TokenSource
	tokenMutex   sync.Mutex
	cachedTokens oauth2.TokenSource
	fieldCache   sync.Map
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// NewClient builds a client around an oauth2 token source. For plain API
// tokens use oauth2.StaticTokenSource; for OAuth installs pass the config's
// TokenSource so expired access tokens refresh transparently.
func NewClient(baseURL string, tokens oauth2.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseTokens:   tokens,
		cachedTokens: oauth2.ReuseTokenSource(nil, tokens),
	}
}

func (c *Client) token() (*oauth2.Token, error) {
	c.tokenMutex.Lock()
	ts := c.cachedTokens
	c.tokenMutex.Unlock()
	return ts.Token()
}

// invalidateToken discards the cached access token so the next request
// fetches a fresh one from the underlying source.
func (c *Client) invalidateToken() {
	c.tokenMutex.Lock()
	c.cachedTokens = oauth2.ReuseTokenSource(nil, c.baseTokens)
	c.tokenMutex.Unlock()
}

// IncrementAPICall safely increments the API call counter.
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count.
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero.
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// apiResponse is the CRM's uniform response envelope. Data stays raw
// because its shape differs per endpoint: an object for updates, a list
// for field metadata.
type apiResponse struct {
	StatusCode int
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	ErrorInfo  string          `json:"error_info"`
}

// authorizedRequest performs one authenticated call. A 401 response forces
// a token refresh and retries exactly once; a second 401 is ErrAuth. All
// other statuses are returned to the caller undisturbed.
func (c *Client) authorizedRequest(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	log.Debug().Str("path", path).Msg("Got 401, refreshing token and retrying once")
	c.invalidateToken()

	resp, err = c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: still unauthorized after token refresh", ErrAuth)
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	token.SetAuthHeader(req)

	c.IncrementAPICall()

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &apiResponse{StatusCode: httpResp.StatusCode}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, resp); err != nil {
			log.Debug().
				Int("status_code", httpResp.StatusCode).
				Str("response_body_preview", string(raw[:min(500, len(raw))])).
				Msg("Response body is not the expected envelope")
			resp.Error = strings.TrimSpace(string(raw))
		}
	}
	return resp, nil
}
