package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("xoxb-test", WithBaseURL(srv.URL))
}

func TestPostMessageSendsBearerAndJSON(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"channel":"D1","ts":"1700000000.000100"}`))
	})

	ts, err := c.PostMessage(context.Background(), "U0BAR", "foo requested your review")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if ts != "1700000000.000100" {
		t.Fatalf("ts = %q", ts)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/chat.postMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["channel"] != "U0BAR" || gotBody["text"] != "foo requested your review" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestLookupUserByEmail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users.lookupByEmail" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		switch r.URL.Query().Get("email") {
		case "bar@example.com":
			_, _ = w.Write([]byte(`{"ok":true,"user":{"id":"U0BAR","name":"bar"}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":false,"error":"users_not_found"}`))
		}
	})

	id, err := c.LookupUserByEmail(context.Background(), "bar@example.com")
	if err != nil || id != "U0BAR" {
		t.Fatalf("lookup => %q, %v", id, err)
	}

	_, err = c.LookupUserByEmail(context.Background(), "ghost@example.com")
	if !IsNotFound(err) {
		t.Fatalf("expected users_not_found, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Method != "users.lookupByEmail" {
		t.Fatalf("expected *APIError, got %#v", err)
	}
}

func TestAuthTest(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"url":"https://acme.slack.com/","team":"Acme","user":"prnotify","user_id":"U0BOT","bot_id":"B0BOT"}`))
	})
	info, err := c.AuthTest(context.Background())
	if err != nil {
		t.Fatalf("auth.test: %v", err)
	}
	if info.Team != "Acme" || info.UserID != "U0BOT" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestHTTPFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Code == "ratelimited"
		}},
		{"server error", http.StatusInternalServerError, func(err error) bool { return err != nil && !IsNotFound(err) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := c.PostMessage(context.Background(), "U1", "hi")
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
