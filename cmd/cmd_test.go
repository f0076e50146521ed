package cmd

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/event"
)

func TestParseUsers(t *testing.T) {
	got, err := parseUsers("octocat=octocat@example.com\n\n  hubot = hubot@example.com  \n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]string{"octocat": "octocat@example.com", "hubot": "hubot@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("users = %v", got)
	}
	if formatted := formatUsers(got); formatted != "hubot=hubot@example.com\noctocat=octocat@example.com\n" {
		t.Fatalf("formatUsers = %q", formatted)
	}

	for _, bad := range []string{"octocat", "=x@example.com", "octocat=not-an-email"} {
		if _, err := parseUsers(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestReadPayloadArgFromStdin(t *testing.T) {
	b, err := readPayloadArg(strings.NewReader(`{"action":"opened"}`), "-")
	if err != nil || string(b) != `{"action":"opened"}` {
		t.Fatalf("read => %q, %v", b, err)
	}
	if _, err := readPayloadArg(nil, "/nonexistent/payload.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRenderBatch(t *testing.T) {
	ev := event.PullRequestEvent{Action: "review_requested"}
	out := renderBatch(ev, []classify.Message{{Recipient: "bar", Body: "foo requested your review on x"}}, nil)
	for _, want := range []string{"pull_request", "review_requested", "@bar", "foo requested your review on x", "1 message(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = renderBatch(event.OtherEvent{Name: "pull_request_review"}, nil, errors.New("payload has no review"))
	if !strings.Contains(out, "No one would be notified") || !strings.Contains(out, "payload has no review") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
