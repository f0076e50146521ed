package tui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/gateway"
)

// Event is one frame received from the gateway's /events stream.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"-"`
}

// Client reads status and events from a running gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the gateway at baseURL ("http://127.0.0.1:6090").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (gateway.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return gateway.Status{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return gateway.Status{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gateway.Status{}, fmt.Errorf("gateway status returned %d", resp.StatusCode)
	}
	var st gateway.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return gateway.Status{}, fmt.Errorf("decoding status: %w", err)
	}
	return st, nil
}

// Stream subscribes to GET /events and forwards every frame to out until ctx
// is cancelled or the connection drops. out is closed on return.
func (c *Client) Stream(ctx context.Context, out chan<- Event) error {
	defer close(out)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway events returned %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		ev.At = time.Now()
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}
