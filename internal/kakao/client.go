// Package kakao talks to the Kakao identity APIs: exchanging an OAuth access token for the
// user's profile, and exchanging an authorization code for an access token.
package kakao

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"berich/internal/metrics"
)

const (
	userInfoPath = "/v2/user/me"
	tokenPath    = "/oauth/token"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

var (
	// ErrRequestFailed is returned when Kakao is unreachable or answers with a non-200 status.
	ErrRequestFailed = errors.New("kakao request failed")
	// ErrInvalidResponse is returned when the Kakao response cannot be interpreted.
	ErrInvalidResponse = errors.New("invalid kakao response")
)

// Profile is the subset of the Kakao user profile used for account linking. Email and
// Nickname are empty when the user did not consent to share them.
type Profile struct {
	ID       string
	Email    string
	Nickname string
	// Raw is the unmodified response body, kept as the connection's side payload.
	Raw []byte
}

// Config holds the endpoints and credentials for the Kakao APIs.
type Config struct {
	APIBaseURL  string
	AuthBaseURL string
	ClientID    string
	RedirectURI string
	Timeout     time.Duration
}

// Client calls the Kakao APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client with a bounded per-request timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchProfile exchanges an access token for the Kakao user profile.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (profile *Profile, err error) {
	start := time.Now()
	defer func() { metrics.ObserveKakao("user_info", err, time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.APIBaseURL, "/")+userInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	id := gjson.GetBytes(body, "id")
	if !id.Exists() {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidResponse)
	}
	return &Profile{
		ID:       id.String(),
		Email:    gjson.GetBytes(body, "kakao_account.email").String(),
		Nickname: gjson.GetBytes(body, "kakao_account.profile.nickname").String(),
		Raw:      body,
	}, nil
}

// ExchangeCode trades an authorization code for a Kakao access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (token string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveKakao("token", err, time.Since(start)) }()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.AuthBaseURL, "/")+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	token = gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("%w: missing access_token", ErrInvalidResponse)
	}
	return token, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, gjson.GetBytes(body, "msg").String())
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}
	return body, nil
}
