package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/charmbracelet/bubbletea"
)

func newFakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"received":3,"ignored":1,"messages":4,"send_failures":0,"subscribers":1,"uptime_seconds":60}`)
	})
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: connected\ndata: {\"type\":\"connected\",\"payload\":{\"received\":3}}\n\n")
		fmt.Fprint(w, ": comment lines are skipped\n\n")
		fmt.Fprint(w, "event: webhook.handled\ndata: {\"type\":\"webhook.handled\",\"payload\":{\"event\":\"pull_request\",\"action\":\"review_requested\",\"messages\":2,\"ignored\":false}}\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientStatus(t *testing.T) {
	srv := newFakeGateway(t)
	st, err := NewClient(srv.URL + "/").Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Received != 3 || st.Messages != 4 || st.Ignored != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestClientStreamParsesFrames(t *testing.T) {
	srv := newFakeGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan Event, 8)
	go func() { _ = NewClient(srv.URL).Stream(ctx, out) }()

	var got []Event
	for ev := range out {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0].Type != "connected" || got[1].Type != "webhook.handled" {
		t.Fatalf("unexpected types: %q, %q", got[0].Type, got[1].Type)
	}
	if got[1].Payload["action"] != "review_requested" || got[1].At.IsZero() {
		t.Fatalf("unexpected payload: %+v", got[1])
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		ev   Event
		want string
	}{
		{Event{Type: "webhook.handled", Payload: map[string]any{"event": "pull_request_review", "action": "submitted", "messages": float64(1), "ignored": false}},
			"pull_request_review/submitted → 1 message(s)"},
		{Event{Type: "webhook.handled", Payload: map[string]any{"event": "issues", "action": "opened", "messages": float64(0), "ignored": true}},
			"issues/opened ignored"},
		{Event{Type: "webhook.failed", Payload: map[string]any{"event": "pull_request", "action": "review_requested", "error": "slack down"}},
			"pull_request/review_requested: slack down"},
		{Event{Type: "directory.reloaded", Payload: map[string]any{"trigger": "schedule"}},
			"reloaded (schedule)"},
		{Event{Type: "connected"}, ""},
	}
	for _, tc := range cases {
		if got := summarize(tc.ev); got != tc.want {
			t.Errorf("summarize(%s) = %q, want %q", tc.ev.Type, got, tc.want)
		}
	}
}

func TestAppFeedAndTabs(t *testing.T) {
	loader := func(context.Context) ([]directory.Entry, error) {
		return []directory.Entry{{Login: "octocat", Email: "octocat@example.com"}}, nil
	}
	app := NewApp("http://127.0.0.1:6090", loader)
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})

	app.Update(eventMsg(Event{
		Type:    "webhook.handled",
		Payload: map[string]any{"event": "pull_request", "action": "review_requested", "messages": float64(2)},
		At:      time.Now(),
	}))
	app.Update(statusLoadedMsg{status: app.activity.status})
	view := app.View()
	if !strings.Contains(view, "pull_request/review_requested") {
		t.Fatalf("activity view missing event:\n%s", view)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if app.activeTab != TabUsers {
		t.Fatalf("expected users tab, got %d", app.activeTab)
	}
	entries, _ := loader(context.Background())
	app.Update(usersLoadedMsg{entries: entries})
	if view := app.View(); !strings.Contains(view, "octocat@example.com") {
		t.Fatalf("users view missing entry:\n%s", view)
	}

	if _, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestFeedIsBounded(t *testing.T) {
	m := NewActivityModel(NewClient("http://example.invalid"))
	for i := 0; i < maxFeed+10; i++ {
		m, _ = m.Update(eventMsg(Event{Type: "webhook.handled"}), true)
	}
	if len(m.feed) != maxFeed {
		t.Fatalf("feed length = %d, want %d", len(m.feed), maxFeed)
	}
}
