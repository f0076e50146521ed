// Package slack is a minimal Slack Web API client covering what direct
// message delivery needs.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api/"

// APIError is a response with "ok": false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// IsNotFound reports whether err is Slack's "users_not_found".
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "users_not_found"
}

// AuthInfo is the subset of auth.test used for diagnostics.
type AuthInfo struct {
	URL    string `json:"url"`
	Team   string `json:"team"`
	User   string `json:"user"`
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
}

// Client talks to the Slack Web API with a bot token.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u == "" {
			return
		}
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying HTTP client. The caller is then
// responsible for authentication.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client authenticated with token.
func New(token string, opts ...Option) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = 10 * time.Second

	c := &Client{baseURL: DefaultBaseURL, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthTest verifies the token.
func (c *Client) AuthTest(ctx context.Context) (AuthInfo, error) {
	var info AuthInfo
	if err := c.call(ctx, http.MethodPost, "auth.test", nil, nil, &info); err != nil {
		return AuthInfo{}, err
	}
	return info, nil
}

// LookupUserByEmail returns the Slack user ID registered with email.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	q := url.Values{"email": {email}}
	if err := c.call(ctx, http.MethodGet, "users.lookupByEmail", q, nil, &resp); err != nil {
		return "", err
	}
	return resp.User.ID, nil
}

// PostMessage sends text to channel. Passing a user ID as channel delivers a
// direct message from the bot. It returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text string) (string, error) {
	body := map[string]any{
		"channel": channel,
		"text":    text,
	}
	var resp struct {
		TS string `json:"ts"`
	}
	if err := c.call(ctx, http.MethodPost, "chat.postMessage", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.TS, nil
}

// call performs one API request and decodes the envelope into out.
func (c *Client) call(ctx context.Context, httpMethod, apiMethod string, query url.Values, body any, out any) error {
	u := c.baseURL + apiMethod
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("slack %s: encoding request: %w", apiMethod, err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, u, reqBody)
	if err != nil {
		return fmt.Errorf("slack %s: %w", apiMethod, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", apiMethod, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &APIError{Method: apiMethod, Code: "ratelimited"}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack %s returned HTTP %d", apiMethod, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("slack %s: decoding response: %w", apiMethod, err)
	}
	var env struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("slack %s: decoding response: %w", apiMethod, err)
	}
	if !env.OK {
		return &APIError{Method: apiMethod, Code: env.Error}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("slack %s: decoding response: %w", apiMethod, err)
		}
	}
	return nil
}
