package tui

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a TUI navigation tab.
type Tab int

const (
	TabActivity Tab = iota
	TabUsers
)

var tabNames = []string{"Activity", "Users"}

// UserLoader lists the directory entries shown on the Users tab.
type UserLoader func(ctx context.Context) ([]directory.Entry, error)

// eventMsg carries one frame from the gateway stream.
type eventMsg Event

// streamClosedMsg is sent once the event stream ends.
type streamClosedMsg struct{}

// App is the root bubbletea model.
type App struct {
	client    *Client
	events    chan Event
	width     int
	height    int
	activeTab Tab
	activity  ActivityModel
	users     UsersModel
	statusMsg string
}

// NewApp creates the TUI application for the gateway at baseURL.
func NewApp(baseURL string, loadUsers UserLoader) *App {
	client := NewClient(baseURL)
	return &App{
		client:   client,
		events:   make(chan Event, 64),
		activity: NewActivityModel(client),
		users:    NewUsersModel(loadUsers),
	}
}

// Run starts the event stream and the bubbletea program.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.client.Stream(ctx, a.events) }()

	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.activity.Init(),
		a.users.Init(),
		waitForEvent(a.events),
	)
}

func waitForEvent(ch <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentW := max(20, msg.Width-2)
		contentH := max(8, msg.Height-6)
		a.activity.SetSize(contentW, contentH)
		a.users.SetSize(contentW, contentH)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.activeTab = TabActivity
		case "2":
			a.activeTab = TabUsers
		case "tab", "shift+tab":
			a.activeTab = (a.activeTab + 1) % Tab(len(tabNames))
		}

	case eventMsg:
		cmds = append(cmds, waitForEvent(a.events))

	case streamClosedMsg:
		a.statusMsg = "event stream closed"
		return a, nil
	}

	// The activity model tracks the stream regardless of the visible tab.
	var cmd tea.Cmd
	a.activity, cmd = a.activity.Update(msg, a.activeTab == TabActivity)
	cmds = append(cmds, cmd)
	a.users, cmd = a.users.Update(msg, a.activeTab == TabUsers)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var content string
	switch a.activeTab {
	case TabUsers:
		content = a.users.View()
	default:
		content = a.activity.View()
	}

	contentBox := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		MaxHeight(max(1, a.height-4)).
		Render(content)

	help := "tab switch  1-2 jump  r refresh  q quit"
	if a.statusMsg != "" {
		help = a.statusMsg + "  ·  " + help
	}
	status := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slateDim).
		Render(help)

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		contentBox,
		status,
	)
}

func (a *App) renderHeader() string {
	parts := []string{titleStyle.Render("prnotify"), "  ", dimStyle.Render(a.client.baseURL), "  "}
	for i, name := range tabNames {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Tab(i) == a.activeTab {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(accent).Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
		if i < len(tabNames)-1 {
			parts = append(parts, dimStyle.Render("  ·  "))
		}
	}
	return lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(line).
		Width(a.width).
		Padding(0, 1).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, parts...))
}
