package gateway

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/CosmoTheDev/prnotify/internal/webhook"
)

const reviewRequested = `{
  "action": "review_requested",
  "pull_request": {
    "html_url": "https://github.com/acme/widgets/pull/1",
    "title": "Fake PR",
    "user": {"login": "foo"},
    "requested_reviewers": [{"login": "bar"}, {"login": "baz"}]
  }
}`

type fakeSender struct {
	batches [][]classify.Message
	err     error
}

func (f *fakeSender) Send(_ context.Context, batch []classify.Message) error {
	f.batches = append(f.batches, batch)
	return f.err
}

func newTestGateway(t *testing.T, secret string, sender *fakeSender, dir directory.Directory) *Gateway {
	t.Helper()
	cfg := &config.Config{}
	cfg.GitHub.WebhookSecret = secret
	if dir == nil {
		dir = directory.NewStatic(nil)
	}
	return New(cfg, webhook.NewHandler(sender), dir)
}

func newDelivery(event, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	if event != "" {
		req.Header.Set("X-GitHub-Event", event)
	}
	return req
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func serve(gw *Gateway, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, req)
	return rr
}

func TestWebhookRequiresEventHeader(t *testing.T) {
	sender := &fakeSender{}
	rr := serve(newTestGateway(t, "", sender, nil), newDelivery("", reviewRequested))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(sender.batches) != 0 {
		t.Fatal("sender should not be called")
	}
}

func TestWebhookSignature(t *testing.T) {
	const secret = "It's a Secret to Everybody"
	cases := []struct {
		name   string
		sig    string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", sign("nope", reviewRequested), http.StatusUnauthorized},
		{"valid", sign(secret, reviewRequested), http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			req := newDelivery("pull_request", reviewRequested)
			if tc.sig != "" {
				req.Header.Set("X-Hub-Signature-256", tc.sig)
			}
			rr := serve(newTestGateway(t, secret, sender, nil), req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			wantCalls := 0
			if tc.status == http.StatusAccepted {
				wantCalls = 1
			}
			if len(sender.batches) != wantCalls {
				t.Fatalf("expected %d sender calls, got %d", wantCalls, len(sender.batches))
			}
		})
	}
}

func TestWebhookIgnoresSignatureWithoutSecret(t *testing.T) {
	sender := &fakeSender{}
	req := newDelivery("pull_request", reviewRequested)
	req.Header.Set("X-Hub-Signature-256", sign("configured-only-on-github", reviewRequested))
	rr := serve(newTestGateway(t, "", sender, nil), req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestWebhookHandledResponse(t *testing.T) {
	sender := &fakeSender{}
	gw := newTestGateway(t, "", sender, nil)
	rr := serve(gw, newDelivery("pull_request", reviewRequested))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var res webhook.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Event != "pull_request" || res.Action != "review_requested" || res.Ignored {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Messages) != 2 || res.Messages[0].Recipient != "bar" || res.Messages[1].Recipient != "baz" {
		t.Fatalf("unexpected messages: %+v", res.Messages)
	}
	if len(sender.batches) != 1 || len(sender.batches[0]) != 2 {
		t.Fatalf("expected one batch of two, got %+v", sender.batches)
	}

	rr = serve(gw, newDelivery("issues", `{"action":"opened"}`))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for ignored event, got %d", rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Ignored || len(res.Messages) != 0 {
		t.Fatalf("expected ignored result, got %+v", res)
	}

	st := gw.currentStatus()
	if st.Received != 2 || st.Ignored != 1 || st.Messages != 2 || st.SendFailures != 0 || st.LastEventAt == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestWebhookPing(t *testing.T) {
	sender := &fakeSender{}
	rr := serve(newTestGateway(t, "", sender, nil), newDelivery("ping", `{"zen":"Keep it logically awesome.","hook_id":1}`))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"pong"`) {
		t.Fatalf("unexpected ping response %d: %s", rr.Code, rr.Body.String())
	}
	if len(sender.batches) != 0 {
		t.Fatal("ping should not reach the sender")
	}
}

func TestWebhookTransportFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("slack: chat.postMessage: channel_not_found")}
	gw := newTestGateway(t, "", sender, nil)
	rr := serve(gw, newDelivery("pull_request", reviewRequested))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if !strings.Contains(body["error"], "channel_not_found") {
		t.Fatalf("unexpected error body: %v", body)
	}
	if st := gw.currentStatus(); st.SendFailures != 1 || st.Messages != 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestWebhookRejectsOversizedPayload(t *testing.T) {
	sender := &fakeSender{}
	big := `{"action":"opened","padding":"` + strings.Repeat("x", maxPayloadBytes) + `"}`
	rr := serve(newTestGateway(t, "", sender, nil), newDelivery("pull_request", big))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestHealthAndStatus(t *testing.T) {
	gw := newTestGateway(t, "", &fakeSender{}, nil)
	rr := serve(gw, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d: %s", rr.Code, rr.Body.String())
	}

	rr = serve(gw, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var st Status
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Received != 0 || st.LastEventAt != "" {
		t.Fatalf("unexpected fresh status: %+v", st)
	}
}

func TestDirectoryReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte("users:\n  - login: foo\n    email: foo@example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := directory.OpenFile(path)
	if err != nil {
		t.Fatalf("open users file: %v", err)
	}
	gw := newTestGateway(t, "", &fakeSender{}, directory.Chain{directory.NewStatic(nil), f})

	rr := serve(gw, httptest.NewRequest(http.MethodPost, "/api/directory/reload", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gw.currentStatus().LastReloadAt == "" {
		t.Fatal("expected last_reload_at to be set")
	}

	if err := os.WriteFile(path, []byte("users: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	rr = serve(gw, httptest.NewRequest(http.MethodPost, "/api/directory/reload", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for broken users file, got %d", rr.Code)
	}

	static := newTestGateway(t, "", &fakeSender{}, directory.NewStatic(nil))
	rr = serve(static, httptest.NewRequest(http.MethodPost, "/api/directory/reload", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for static directory, got %d", rr.Code)
	}
}

func TestDirectoryReloadConfigOnlyChain(t *testing.T) {
	// The CLI always hands the gateway a Chain; with only the config map in
	// it there is nothing to reload.
	gw := newTestGateway(t, "", &fakeSender{}, directory.Chain{directory.NewStatic(map[string]string{"foo": "foo@example.com"})})

	rr := serve(gw, httptest.NewRequest(http.MethodPost, "/api/directory/reload", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if st := gw.currentStatus(); st.LastReloadAt != "" {
		t.Fatalf("last_reload_at should stay unset, got %q", st.LastReloadAt)
	}
}

func TestEventsStreamsWebhookOutcome(t *testing.T) {
	gw := newTestGateway(t, "", &fakeSender{}, nil)
	srv := httptest.NewServer(buildHandler(gw))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(eventType string) {
		t.Helper()
		for lines.Scan() {
			if lines.Text() == "event: "+eventType {
				return
			}
		}
		t.Fatalf("stream ended before %q: %v", eventType, lines.Err())
	}
	waitFor("connected")

	post, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhook", strings.NewReader(reviewRequested))
	post.Header.Set("Content-Type", "application/json")
	post.Header.Set("X-GitHub-Event", "pull_request")
	pr, err := srv.Client().Do(post)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	pr.Body.Close()

	waitFor("webhook.handled")
}

func TestSchedulerRegistersJobs(t *testing.T) {
	if err := ValidateSchedule("@every 10m"); err != nil {
		t.Fatalf("valid expression rejected: %v", err)
	}
	if err := ValidateSchedule("every ten minutes"); err == nil {
		t.Fatal("expected invalid expression error")
	}

	s := newScheduler()
	if err := s.Add("bad", "61 * * * *", func() {}); err == nil {
		t.Fatal("expected error for out-of-range minute")
	}
	if err := s.Add(reloadJob, "@every 1h", func() {}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(reloadJob, "@every 2h", func() {}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("replacing a job should leave one entry, got %d", n)
	}
	s.Start()
	defer s.Stop()
	if next := s.Next(reloadJob); next.IsZero() || next.Before(time.Now().Add(90*time.Minute)) {
		t.Fatalf("unexpected next run %v", next)
	}
	if !s.Next("unknown").IsZero() {
		t.Fatal("unregistered job should have no next run")
	}
}
