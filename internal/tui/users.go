package tui

import (
	"context"

	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// UsersModel lists the directory entries the gateway resolves logins with.
type UsersModel struct {
	load    UserLoader
	entries []directory.Entry
	err     error
	width   int
	height  int
	loading bool
}

// usersLoadedMsg carries loaded directory entries.
type usersLoadedMsg struct {
	entries []directory.Entry
	err     error
}

// NewUsersModel creates a UsersModel. A nil load shows an empty list.
func NewUsersModel(load UserLoader) UsersModel {
	return UsersModel{load: load, loading: load != nil}
}

func (m UsersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m UsersModel) loadCmd() tea.Cmd {
	if m.load == nil {
		return nil
	}
	load := m.load
	return func() tea.Msg {
		entries, err := load(context.Background())
		return usersLoadedMsg{entries: entries, err: err}
	}
}

// Update handles msg. Keys are only acted on when the tab is visible.
func (m UsersModel) Update(msg tea.Msg, active bool) (UsersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.err = msg.err
	case tea.KeyMsg:
		if active && msg.String() == "r" && m.load != nil {
			m.loading = true
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m *UsersModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m UsersModel) View() string {
	rows := []string{
		panelHeaderStyle.Render("Directory"),
		dimStyle.Render("Login                 Email                               Slack ID"),
	}
	switch {
	case m.loading:
		rows = append(rows, dimStyle.Render("Loading users..."))
	case m.err != nil:
		rows = append(rows, errorStyle.Render(m.err.Error()))
	case len(m.entries) == 0:
		rows = append(rows, dimStyle.Render("No users. Add some with: prnotify users set <login> <email>"))
	}
	limit := max(5, m.height-6)
	for i, e := range m.entries {
		if i >= limit {
			rows = append(rows, dimStyle.Render("..."))
			break
		}
		slackID := e.SlackUserID
		if slackID == "" {
			slackID = "(by email)"
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			lipgloss.NewStyle().Width(22).Foreground(ink).Render(truncate(e.Login, 20)),
			lipgloss.NewStyle().Width(36).Foreground(slate).Render(truncate(e.Email, 34)),
			dimStyle.Render(slackID),
		))
	}
	return panelStyle.Width(max(20, m.width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
