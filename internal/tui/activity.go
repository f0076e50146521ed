package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/gateway"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxFeed = 50

// ActivityModel shows delivery counters and the live event feed.
type ActivityModel struct {
	client   *Client
	status   gateway.Status
	err      error
	feed     []Event // newest first
	width    int
	height   int
	lastLoad time.Time
	loading  bool
}

// activityTickMsg triggers the periodic status refresh.
type activityTickMsg time.Time

// statusLoadedMsg carries a /api/status result.
type statusLoadedMsg struct {
	status gateway.Status
	err    error
}

// NewActivityModel creates an ActivityModel.
func NewActivityModel(client *Client) ActivityModel {
	return ActivityModel{client: client, loading: true}
}

func (m ActivityModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), activityTick())
}

// activityTick refreshes the counters every 5 seconds.
func activityTick() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg { return activityTickMsg(t) })
}

func (m ActivityModel) loadCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		st, err := client.Status(context.Background())
		return statusLoadedMsg{status: st, err: err}
	}
}

// Update handles msg. Keys are only acted on when the tab is visible.
func (m ActivityModel) Update(msg tea.Msg, active bool) (ActivityModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.lastLoad = time.Now()
		}
	case activityTickMsg:
		return m, tea.Batch(m.loadCmd(), activityTick())
	case eventMsg:
		m.feed = append([]Event{Event(msg)}, m.feed...)
		if len(m.feed) > maxFeed {
			m.feed = m.feed[:maxFeed]
		}
	case tea.KeyMsg:
		if active && msg.String() == "r" {
			m.loading = true
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m *ActivityModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m ActivityModel) View() string {
	cardW := 16
	if m.width >= 100 {
		cardW = 20
	}
	summary := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCounter("Received", m.status.Received, receivedStyle, cardW),
		renderCounter("Messages", m.status.Messages, messagesStyle, cardW),
		renderCounter("Ignored", m.status.Ignored, ignoredStyle, cardW),
		renderCounter("Failures", m.status.SendFailures, failureStyle, cardW),
	)

	lineLimit := max(5, m.height-12)
	var rows []string
	for i, ev := range m.feed {
		if i >= lineLimit {
			break
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			dimStyle.Width(10).Render(ev.At.Format("15:04:05")),
			lipgloss.NewStyle().Width(22).Render(eventBadge(ev.Type)),
			lipgloss.NewStyle().Foreground(ink).Render(summarize(ev)),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, dimStyle.Render("Waiting for webhook deliveries..."))
	}

	updated := "never"
	if !m.lastLoad.IsZero() {
		updated = m.lastLoad.Format("15:04:05")
	}
	footer := lipgloss.JoinHorizontal(lipgloss.Left,
		keycapStyle.Render("r"),
		" ",
		dimStyle.Render("refresh"),
		"   ",
		dimStyle.Render("updated "+updated),
	)
	if m.err != nil {
		footer = lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render("gateway unreachable: "+m.err.Error()), footer)
	} else if m.status.NextReloadAt != "" {
		footer = lipgloss.JoinHorizontal(lipgloss.Left, footer, "   ", dimStyle.Render("next reload "+m.status.NextReloadAt))
	}

	body := append([]string{panelHeaderStyle.Render("Live Events")}, rows...)
	body = append(body, "", footer)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(summary),
		panelStyle.Width(max(20, m.width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, body...)),
	)
}

// summarize renders the interesting payload fields of ev on one line.
func summarize(ev Event) string {
	p := ev.Payload
	str := func(k string) string {
		if v, ok := p[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	switch ev.Type {
	case "webhook.handled":
		if ignored, _ := p["ignored"].(bool); ignored {
			return fmt.Sprintf("%s/%s ignored", str("event"), str("action"))
		}
		return fmt.Sprintf("%s/%s → %s message(s)", str("event"), str("action"), str("messages"))
	case "webhook.failed":
		return fmt.Sprintf("%s/%s: %s", str("event"), str("action"), str("error"))
	case "directory.reloaded":
		if e := str("error"); e != "" {
			return "reload failed: " + e
		}
		return "reloaded (" + str("trigger") + ")"
	case "gateway.started":
		return str("addr")
	}
	return ""
}

func renderCounter(label string, count int64, style lipgloss.Style, width int) string {
	return boxStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			style.Render(fmt.Sprintf("%d", count)),
			dimStyle.Render(strings.ToUpper(label)),
		),
	) + "  "
}
