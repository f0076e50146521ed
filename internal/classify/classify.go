// Package classify decides who hears about a pull request webhook event and
// what they are told. It performs no I/O and holds no state.
package classify

import (
	"fmt"
	"strings"

	"github.com/CosmoTheDev/prnotify/internal/event"
)

// Message is one notification addressed to a GitHub login.
type Message struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

// Classify returns the ordered message batch for ev. Events outside the
// supported (category, action, review state) combinations yield nil.
func Classify(ev event.Event) []Message {
	switch e := ev.(type) {
	case event.PullRequestEvent:
		return classifyPullRequest(e)
	case event.PullRequestReviewEvent:
		return classifyReview(e)
	case event.PullRequestReviewCommentEvent:
		return classifyReviewComment(e)
	case event.OtherEvent:
		return nil
	default:
		return nil
	}
}

func classifyPullRequest(e event.PullRequestEvent) []Message {
	if e.Action != event.ActionReviewRequested {
		return nil
	}
	pr := e.PullRequest
	body := fmt.Sprintf("%s requested your review on %s", pr.Author.Login, prLink(pr))

	b := newBatch(pr.Author.Login)
	for _, r := range pr.RequestedReviewers {
		b.add(r.Login, body)
	}
	return b.messages()
}

func classifyReview(e event.PullRequestReviewEvent) []Message {
	if e.Action != event.ActionSubmitted {
		return nil
	}
	var verb string
	switch e.Review.State {
	case event.ReviewApproved:
		verb = "approved"
	case event.ReviewChangesRequested:
		verb = "requested changes on"
	case event.ReviewCommented:
		verb = "commented on"
	default:
		return nil
	}
	reviewer := e.Review.Author.Login
	body := fmt.Sprintf("%s %s %s", reviewer, verb, prLink(e.PullRequest))

	b := newBatch(reviewer)
	b.add(e.PullRequest.Author.Login, body)
	return b.messages()
}

func classifyReviewComment(e event.PullRequestReviewCommentEvent) []Message {
	if e.Action != event.ActionCreated {
		return nil
	}
	pr := e.PullRequest
	commenter := e.Comment.Author.Login
	body := fmt.Sprintf("%s commented on %s: %s", commenter, prLink(pr), e.Comment.Body)

	b := newBatch(commenter)
	b.add(pr.Author.Login, body)
	for _, r := range pr.RequestedReviewers {
		b.add(r.Login, body)
	}
	return b.messages()
}

// prLink renders the pull request as a Slack mrkdwn link.
func prLink(pr event.PullRequest) string {
	if pr.Title == "" {
		return pr.HTMLURL
	}
	if pr.HTMLURL == "" {
		return pr.Title
	}
	return "<" + pr.HTMLURL + "|" + pr.Title + ">"
}

// batch accumulates messages in derivation order, skipping the actor, empty
// logins and repeat recipients.
type batch struct {
	actor string
	seen  map[string]struct{}
	out   []Message
}

func newBatch(actor string) *batch {
	return &batch{actor: strings.ToLower(actor), seen: make(map[string]struct{})}
}

func (b *batch) add(login, body string) {
	key := strings.ToLower(login)
	if key == "" || key == b.actor {
		return
	}
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.out = append(b.out, Message{Recipient: login, Body: body})
}

func (b *batch) messages() []Message {
	return b.out
}
