package classify

import (
	"reflect"
	"strings"
	"testing"

	"github.com/CosmoTheDev/prnotify/internal/event"
)

var (
	foo = event.User{Login: "foo"}
	bar = event.User{Login: "bar"}
	baz = event.User{Login: "baz"}
)

func fakePR() event.PullRequest {
	return event.PullRequest{
		HTMLURL:            "https://github.com/acme/widgets/pull/1234",
		Title:              "Fake PR",
		Author:             foo,
		RequestedReviewers: []event.User{bar, baz},
	}
}

func review(state event.ReviewState, by event.User) event.Review {
	return event.Review{
		Body:    "Looks good.",
		HTMLURL: "https://github.com/acme/widgets/pull/1234#pullrequestreview-1",
		State:   state,
		Author:  by,
	}
}

func TestReviewRequestedNotifiesEachReviewerInOrder(t *testing.T) {
	msgs := Classify(event.PullRequestEvent{Action: event.ActionReviewRequested, PullRequest: fakePR()})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(msgs), msgs)
	}
	for i, want := range []string{"bar", "baz"} {
		if msgs[i].Recipient != want {
			t.Fatalf("message %d recipient = %q, want %q", i, msgs[i].Recipient, want)
		}
		if !strings.Contains(msgs[i].Body, "foo requested your review") {
			t.Fatalf("message %d body = %q", i, msgs[i].Body)
		}
		if !strings.Contains(msgs[i].Body, "<https://github.com/acme/widgets/pull/1234|Fake PR>") {
			t.Fatalf("message %d body lacks PR link: %q", i, msgs[i].Body)
		}
	}
}

func TestReviewRequestedWithoutReviewers(t *testing.T) {
	pr := fakePR()
	pr.RequestedReviewers = nil
	if msgs := Classify(event.PullRequestEvent{Action: event.ActionReviewRequested, PullRequest: pr}); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %+v", msgs)
	}
}

func TestReviewSubmitted(t *testing.T) {
	cases := []struct {
		state event.ReviewState
		want  string
	}{
		{event.ReviewApproved, "bar approved"},
		{event.ReviewChangesRequested, "bar requested changes"},
		{event.ReviewCommented, "bar commented on"},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			msgs := Classify(event.PullRequestReviewEvent{
				Action:      event.ActionSubmitted,
				PullRequest: fakePR(),
				Review:      review(tc.state, bar),
			})
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d: %+v", len(msgs), msgs)
			}
			if msgs[0].Recipient != "foo" {
				t.Fatalf("recipient = %q, want foo", msgs[0].Recipient)
			}
			if !strings.Contains(msgs[0].Body, tc.want) {
				t.Fatalf("body %q does not contain %q", msgs[0].Body, tc.want)
			}
		})
	}
}

func TestReviewCommentNotifiesAuthorThenReviewers(t *testing.T) {
	msgs := Classify(event.PullRequestReviewCommentEvent{
		Action:      event.ActionCreated,
		PullRequest: fakePR(),
		Comment: event.Comment{
			Body:    "Hmm.",
			HTMLURL: "https://github.com/acme/widgets/pull/1234#discussion_r1",
			Author:  baz,
		},
	})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Recipient != "foo" || msgs[1].Recipient != "bar" {
		t.Fatalf("unexpected recipients: %q, %q", msgs[0].Recipient, msgs[1].Recipient)
	}
	if !strings.Contains(msgs[0].Body, "baz commented on") || !strings.Contains(msgs[0].Body, "Hmm.") {
		t.Fatalf("unexpected body: %q", msgs[0].Body)
	}
}

func TestNoSelfNotification(t *testing.T) {
	// Author reviewing their own PR.
	msgs := Classify(event.PullRequestReviewEvent{
		Action:      event.ActionSubmitted,
		PullRequest: fakePR(),
		Review:      review(event.ReviewCommented, foo),
	})
	if len(msgs) != 0 {
		t.Fatalf("expected no messages for self review, got %+v", msgs)
	}

	// Author replying to a review thread: only reviewers hear about it.
	msgs = Classify(event.PullRequestReviewCommentEvent{
		Action:      event.ActionCreated,
		PullRequest: fakePR(),
		Comment:     event.Comment{Body: "Fixed.", Author: event.User{Login: "FOO"}},
	})
	got := recipients(msgs)
	if want := []string{"bar", "baz"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestDuplicateRecipientsCollapse(t *testing.T) {
	pr := fakePR()
	pr.RequestedReviewers = []event.User{bar, foo, bar, {Login: ""}, baz}
	msgs := Classify(event.PullRequestReviewCommentEvent{
		Action:      event.ActionCreated,
		PullRequest: pr,
		Comment:     event.Comment{Body: "nit", Author: event.User{Login: "qux"}},
	})
	got := recipients(msgs)
	if want := []string{"foo", "bar", "baz"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestPRLinkFallsBackToURL(t *testing.T) {
	pr := fakePR()
	pr.Title = ""
	msgs := Classify(event.PullRequestEvent{Action: event.ActionReviewRequested, PullRequest: pr})
	if len(msgs) == 0 {
		t.Fatal("expected messages")
	}
	if want := "foo requested your review on https://github.com/acme/widgets/pull/1234"; msgs[0].Body != want {
		t.Fatalf("body = %q, want %q", msgs[0].Body, want)
	}
}

func TestIgnoresUnsupportedEvents(t *testing.T) {
	events := []event.Event{
		event.PullRequestEvent{Action: "created", PullRequest: fakePR()},
		event.PullRequestEvent{Action: "opened", PullRequest: fakePR()},
		event.PullRequestReviewEvent{Action: "edited", PullRequest: fakePR(), Review: review(event.ReviewApproved, bar)},
		event.PullRequestReviewEvent{Action: "dismissed", PullRequest: fakePR(), Review: review(event.ReviewApproved, bar)},
		event.PullRequestReviewEvent{Action: event.ActionSubmitted, PullRequest: fakePR(), Review: review("PENDING", bar)},
		event.PullRequestReviewCommentEvent{Action: "edited", PullRequest: fakePR(), Comment: event.Comment{Body: "Hmm.", Author: baz}},
		event.PullRequestReviewCommentEvent{Action: "deleted", PullRequest: fakePR(), Comment: event.Comment{Body: "Hmm.", Author: baz}},
		event.OtherEvent{Name: "other_event"},
		event.OtherEvent{Name: "pull_request_review", Action: event.ActionSubmitted},
		nil,
	}
	for i, ev := range events {
		if msgs := Classify(ev); len(msgs) != 0 {
			t.Fatalf("event %d (%T): expected no messages, got %+v", i, ev, msgs)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	ev := event.PullRequestReviewCommentEvent{
		Action:      event.ActionCreated,
		PullRequest: fakePR(),
		Comment:     event.Comment{Body: "Hmm.", Author: baz},
	}
	first := Classify(ev)
	second := Classify(ev)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classify not idempotent:\n%+v\n%+v", first, second)
	}
}

func recipients(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Recipient
	}
	return out
}
