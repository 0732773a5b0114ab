// Package tui implements the terminal story viewer: a carousel over the
// current story's frames that live-updates as the backend generates new
// content.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/media"
	"github.com/chrisimmel/calliope-sub000/internal/story"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
	mediaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type snapshotMsg story.Snapshot

// Model is the bubbletea model for the story viewer.
type Model struct {
	session  *story.Session
	resolver *media.Resolver
	updates  chan story.Snapshot
	snap     story.Snapshot
	spinner  spinner.Model

	width  int
	height int
}

// NewModel creates a viewer over the session. The session's listener feeds
// state changes into the bubbletea event loop.
func NewModel(session *story.Session, resolver *media.Resolver) *Model {
	m := &Model{
		session:  session,
		resolver: resolver,
		updates:  make(chan story.Snapshot, 16),
		snap:     session.Snapshot(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle)),
	}
	session.AddListener(func(snap story.Snapshot) {
		select {
		case m.updates <- snap:
		default:
			// The viewer only needs the latest state; drop when behind.
		}
	})
	return m
}

// Run starts the viewer and blocks until the user quits.
func Run(session *story.Session, resolver *media.Resolver) error {
	p := tea.NewProgram(NewModel(session, resolver), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.spinner.Tick)
}

func (m *Model) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.snap = story.Snapshot(msg)
		return m, m.waitSnapshot()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", " ":
			m.session.NextFrame()
			m.snap = m.session.Snapshot()
		case "left", "h":
			m.session.PrevFrame()
			m.snap = m.session.Snapshot()
		case "home", "g":
			m.session.SelectFrame(0)
			m.snap = m.session.Snapshot()
		case "end", "G":
			m.session.SelectFrame(len(m.snap.Frames) - 1)
			m.snap = m.session.Snapshot()
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderFrame())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *Model) renderTitle() string {
	title := m.snap.Title
	if title == "" {
		title = "New story"
	}
	pos := ""
	if n := len(m.snap.Frames); n > 0 {
		pos = fmt.Sprintf("  %d/%d", m.snap.SelectedFrame+1, n)
	}
	return titleStyle.Render(title) + statusStyle.Render(pos)
}

func (m *Model) renderFrame() string {
	if len(m.snap.Frames) == 0 || m.snap.SelectedFrame < 0 {
		return frameStyle.Render(mediaStyle.Render("No frames yet. Submit a photo with 'clio snap' to begin."))
	}

	frame := m.snap.Frames[m.snap.SelectedFrame]
	var parts []string
	if frame.Image != nil && frame.Image.URL != "" {
		parts = append(parts, mediaStyle.Render("[image] "+m.resolver.ResolveURL(frame.Image.URL)))
	}
	if frame.Video != nil && frame.Video.URL != "" {
		parts = append(parts, mediaStyle.Render("[video] "+m.resolver.ResolveURL(frame.Video.URL)))
	}
	if text := strings.TrimSpace(frame.Text); text != "" {
		width := m.width - 6
		if width < 20 {
			width = 20
		}
		parts = append(parts, lipgloss.NewStyle().Width(width).Render(text))
	}
	return frameStyle.Render(strings.Join(parts, "\n\n"))
}

func (m *Model) renderStatus() string {
	if m.snap.Err != "" {
		return errorStyle.Render("✗ " + m.snap.Err)
	}
	if m.snap.IsSubmitting || (m.snap.LastStatus != nil && m.snap.LastStatus.Status.Busy()) {
		return m.spinner.View() + busyStyle.Render(" the muse is working on the next frame…")
	}
	if m.snap.IsLoading {
		return statusStyle.Render("… loading")
	}
	if m.snap.LastStatus != nil && m.snap.LastStatus.Status == api.StatusKindError {
		return errorStyle.Render("✗ " + m.snap.LastStatus.Error)
	}
	return statusStyle.Render("←/→ page · q quit")
}
