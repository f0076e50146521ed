package event

import (
	"encoding/json"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
)

// Decode turns a webhook event name and its JSON body into an Event.
//
// The returned Event is always usable. Unknown event names decode to
// OtherEvent with a nil error. A known name whose payload is malformed, or
// lacks the objects the category needs, decodes to OtherEvent and a non-nil
// error describing why, so callers can log it and move on.
func Decode(name string, payload []byte) (Event, error) {
	switch Category(name) {
	case CategoryPullRequest, CategoryPullRequestReview, CategoryPullRequestReviewComment:
	default:
		return OtherEvent{Name: name, Action: peekAction(payload)}, nil
	}

	parsed, err := gogithub.ParseWebHook(name, payload)
	if err != nil {
		return OtherEvent{Name: name}, fmt.Errorf("decoding %s payload: %w", name, err)
	}

	switch ev := parsed.(type) {
	case *gogithub.PullRequestEvent:
		if ev.PullRequest == nil {
			return OtherEvent{Name: name, Action: ev.GetAction()}, fmt.Errorf("%s payload has no pull_request", name)
		}
		return PullRequestEvent{
			Action:      ev.GetAction(),
			PullRequest: fromPullRequest(ev.PullRequest),
		}, nil
	case *gogithub.PullRequestReviewEvent:
		if ev.PullRequest == nil || ev.Review == nil {
			return OtherEvent{Name: name, Action: ev.GetAction()}, fmt.Errorf("%s payload has no pull_request or review", name)
		}
		r := ev.Review
		return PullRequestReviewEvent{
			Action:      ev.GetAction(),
			PullRequest: fromPullRequest(ev.PullRequest),
			Review: Review{
				Body:    r.GetBody(),
				HTMLURL: r.GetHTMLURL(),
				State:   ReviewState(strings.ToUpper(r.GetState())),
				Author:  fromUser(r.GetUser()),
			},
		}, nil
	case *gogithub.PullRequestReviewCommentEvent:
		if ev.PullRequest == nil || ev.Comment == nil {
			return OtherEvent{Name: name, Action: ev.GetAction()}, fmt.Errorf("%s payload has no pull_request or comment", name)
		}
		c := ev.Comment
		return PullRequestReviewCommentEvent{
			Action:      ev.GetAction(),
			PullRequest: fromPullRequest(ev.PullRequest),
			Comment: Comment{
				Body:    c.GetBody(),
				HTMLURL: c.GetHTMLURL(),
				Author:  fromUser(c.GetUser()),
			},
		}, nil
	default:
		return OtherEvent{Name: name}, fmt.Errorf("unexpected payload type %T for %s", parsed, name)
	}
}

func fromPullRequest(pr *gogithub.PullRequest) PullRequest {
	out := PullRequest{
		URL:     pr.GetURL(),
		HTMLURL: pr.GetHTMLURL(),
		Title:   pr.GetTitle(),
		Author:  fromUser(pr.GetUser()),
	}
	if len(pr.RequestedReviewers) > 0 {
		out.RequestedReviewers = make([]User, 0, len(pr.RequestedReviewers))
		for _, u := range pr.RequestedReviewers {
			if u == nil {
				continue
			}
			out.RequestedReviewers = append(out.RequestedReviewers, fromUser(u))
		}
	}
	return out
}

func fromUser(u *gogithub.User) User {
	return User{Login: u.GetLogin()}
}

// peekAction extracts the top-level "action" field without caring about the
// rest of the payload shape.
func peekAction(payload []byte) string {
	var head struct {
		Action string `json:"action"`
	}
	if len(payload) == 0 {
		return ""
	}
	_ = json.Unmarshal(payload, &head)
	return head.Action
}
