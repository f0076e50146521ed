package event

// Category is the top-level webhook event type (the X-GitHub-Event header).
type Category string

const (
	CategoryPullRequest              Category = "pull_request"
	CategoryPullRequestReview        Category = "pull_request_review"
	CategoryPullRequestReviewComment Category = "pull_request_review_comment"
	CategoryOther                    Category = "other"
)

// Actions the classifier understands. Anything else is carried through
// verbatim and ignored downstream.
const (
	ActionReviewRequested = "review_requested"
	ActionSubmitted       = "submitted"
	ActionCreated         = "created"
)

// ReviewState is the outcome of a submitted review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
)

// User is a GitHub account, identified by login.
type User struct {
	Login string `json:"login"`
}

// PullRequest carries the fields notifications are built from.
type PullRequest struct {
	URL                string `json:"url"`
	HTMLURL            string `json:"html_url"`
	Title              string `json:"title"`
	Author             User   `json:"user"`
	RequestedReviewers []User `json:"requested_reviewers"`
}

// Review is a submitted pull request review.
type Review struct {
	Body    string      `json:"body"`
	HTMLURL string      `json:"html_url"`
	State   ReviewState `json:"state"`
	Author  User        `json:"user"`
}

// Comment is an inline review comment on a pull request diff.
type Comment struct {
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	Author  User   `json:"user"`
}

// Event is the sealed union of webhook events. Only the types in this
// package implement it, so a type switch over the variants below is
// exhaustive.
type Event interface {
	Category() Category
	// EventAction returns the payload's action string ("" for events without one).
	EventAction() string

	isEvent()
}

// PullRequestEvent is a "pull_request" delivery.
type PullRequestEvent struct {
	Action      string
	PullRequest PullRequest
}

// PullRequestReviewEvent is a "pull_request_review" delivery.
type PullRequestReviewEvent struct {
	Action      string
	PullRequest PullRequest
	Review      Review
}

// PullRequestReviewCommentEvent is a "pull_request_review_comment" delivery.
type PullRequestReviewCommentEvent struct {
	Action      string
	PullRequest PullRequest
	Comment     Comment
}

// OtherEvent is any delivery we do not model, including known categories
// whose payload could not be decoded.
type OtherEvent struct {
	Name   string
	Action string
}

func (PullRequestEvent) Category() Category              { return CategoryPullRequest }
func (PullRequestReviewEvent) Category() Category        { return CategoryPullRequestReview }
func (PullRequestReviewCommentEvent) Category() Category { return CategoryPullRequestReviewComment }
func (OtherEvent) Category() Category                    { return CategoryOther }

func (e PullRequestEvent) EventAction() string              { return e.Action }
func (e PullRequestReviewEvent) EventAction() string        { return e.Action }
func (e PullRequestReviewCommentEvent) EventAction() string { return e.Action }
func (e OtherEvent) EventAction() string                    { return e.Action }

func (PullRequestEvent) isEvent()              {}
func (PullRequestReviewEvent) isEvent()        {}
func (PullRequestReviewCommentEvent) isEvent() {}
func (OtherEvent) isEvent()                    {}

// Name returns the webhook event name an Event was decoded from.
func Name(e Event) string {
	if o, ok := e.(OtherEvent); ok {
		return o.Name
	}
	return string(e.Category())
}
