package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/CosmoTheDev/prnotify/internal/config"
	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHub resolves a login to the public email on its GitHub profile. It is
// meant as the last member of a Chain. Results, including misses, are cached
// until Reload.
type GitHub struct {
	client *gogithub.Client

	mu    sync.Mutex
	cache map[string]githubResult
}

type githubResult struct {
	entry Entry
	found bool
}

// NewGitHub creates a profile lookup for github.com or a GitHub Enterprise
// host. An empty token makes unauthenticated requests.
func NewGitHub(cfg config.GitHubConfig) (*GitHub, error) {
	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.Background(), ts)
	}
	client := gogithub.NewClient(hc)

	if cfg.Host != "" && cfg.Host != "github.com" {
		base := fmt.Sprintf("https://%s/api/v3/", cfg.Host)
		upload := fmt.Sprintf("https://%s/api/uploads/", cfg.Host)
		var err error
		client, err = client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub enterprise URLs: %w", err)
		}
	}
	return newGitHubWithClient(client), nil
}

func newGitHubWithClient(client *gogithub.Client) *GitHub {
	return &GitHub{client: client, cache: make(map[string]githubResult)}
}

// Lookup implements Directory.
func (g *GitHub) Lookup(ctx context.Context, login string) (Entry, error) {
	key := normalize(login)
	if key == "" {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
	}

	g.mu.Lock()
	cached, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		if !cached.found {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
		}
		return cached.entry, nil
	}

	user, _, err := g.client.Users.Get(ctx, login)
	if err != nil {
		var ghErr *gogithub.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			g.store(key, githubResult{})
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
		}
		return Entry{}, fmt.Errorf("fetching GitHub profile %s: %w", login, err)
	}

	email := user.GetEmail()
	if email == "" {
		slog.Debug("directory: GitHub profile has no public email", "login", login)
		g.store(key, githubResult{})
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
	}
	e := Entry{Login: user.GetLogin(), Email: email}
	if e.Login == "" {
		e.Login = login
	}
	g.store(key, githubResult{entry: e, found: true})
	return e, nil
}

// Reload drops cached profiles so the next lookup asks GitHub again.
func (g *GitHub) Reload() error {
	g.mu.Lock()
	g.cache = make(map[string]githubResult)
	g.mu.Unlock()
	return nil
}

func (g *GitHub) store(key string, r githubResult) {
	g.mu.Lock()
	g.cache[key] = r
	g.mu.Unlock()
}
