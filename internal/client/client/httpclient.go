package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewHTTPClient creates a client for the server at baseURL. The refresh
// token cookie lives in a private jar.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, userName string, password []byte) (*Identity, error) {
	body := map[string]string{"username": userName, "password": string(password)}

	var identity Identity
	if err := c.do(ctx, http.MethodPost, common.RegisterPath, body, false, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *HTTPClient) Login(ctx context.Context, userName string, password []byte) error {
	body := map[string]string{"username": userName, "password": string(password)}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, common.LoginPath, body, false, &resp); err != nil {
		return err
	}

	c.setAccessToken(resp)
	return nil
}

// Refresh exchanges the refresh token cookie for a new access token. The
// server rotates the cookie in the same response.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, common.RefreshTokenPath, nil, false, &resp); err != nil {
		return err
	}

	c.setAccessToken(resp)
	return nil
}

// WhoAmI returns the identity behind the current access token, refreshing
// it once if the server reports it expired.
func (c *HTTPClient) WhoAmI(ctx context.Context) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}

	err := c.do(ctx, http.MethodGet, common.AuthBasePath, nil, true, &resp)
	if errors.Is(err, errAccessTokenExpired) {
		if err := c.Refresh(ctx); err != nil {
			return "", err
		}
		err = c.do(ctx, http.MethodGet, common.AuthBasePath, nil, true, &resp)
	}
	if err != nil {
		if errors.Is(err, errAccessTokenExpired) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	return resp.Username, nil
}

// Logout forgets the access token and the refresh token cookie.
func (c *HTTPClient) Logout() {
	c.mu.Lock()
	c.accessToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	u := c.baseURL.ResolveReference(&url.URL{Path: common.AuthBasePath})
	c.http.Jar.SetCookies(u, []*http.Cookie{{
		Name:   common.RefreshTokenCookieName,
		Path:   common.AuthBasePath,
		MaxAge: -1,
	}})
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, false, nil)
}

// AccessTokenExpiresAt reports when the current access token expires.
func (c *HTTPClient) AccessTokenExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

func (c *HTTPClient) setAccessToken(resp tokenResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = resp.AccessToken
	c.expiresAt = resp.ExpiresAt
}

func (c *HTTPClient) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// errAccessTokenExpired triggers the single transparent refresh.
var errAccessTokenExpired = errors.New(common.MessageAccessTokenExpired)

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, authorized bool, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		token := c.bearer()
		if token == "" {
			return ErrUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return mapError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapError(resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)

	switch e.Error {
	case common.MessageUserNotFound:
		return ErrUserNotFound
	case common.MessageWrongPassword:
		return ErrWrongPassword
	case common.MessageAlreadyExists:
		return ErrAlreadyExists
	case common.MessageInvalidRefreshToken:
		return ErrInvalidRefreshToken
	case common.MessageRefreshExpired:
		return ErrSessionExpired
	case common.MessageAccessTokenExpired:
		return errAccessTokenExpired
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("http error: status %d: %s", resp.StatusCode, e.Error)
	}
}
