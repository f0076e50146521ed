package gateway

// SSEEvent is serialised as JSON and pushed over the GET /events SSE stream.
type SSEEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Status is a live snapshot of webhook traffic since the gateway started.
type Status struct {
	Received      int64  `json:"received"`
	Ignored       int64  `json:"ignored"`
	Messages      int64  `json:"messages"`
	SendFailures  int64  `json:"send_failures"`
	LastEventAt   string `json:"last_event_at,omitempty"`
	LastReloadAt  string `json:"last_reload_at,omitempty"`
	NextReloadAt  string `json:"next_reload_at,omitempty"`
	Subscribers   int    `json:"subscribers"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
