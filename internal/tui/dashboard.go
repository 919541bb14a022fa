// Package tui renders a live terminal dashboard for a running harness.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/blockq/internal/blockq"
	"github.com/Iron-Ham/blockq/internal/supervisor"
	"github.com/Iron-Ham/blockq/internal/tui/styles"
	"github.com/Iron-Ham/blockq/internal/util"
)

// Source supplies per-task status and counter values.
type Source interface {
	Snapshot() []blockq.TaskStatus
	Counts() blockq.Counts
}

// Resetter is implemented by sources whose counters can be zeroed from the
// dashboard.
type Resetter interface {
	ResetCounters()
}

// StatusSource supplies the supervisor's aggregated status.
type StatusSource interface {
	Status() supervisor.Status
}

// MessageSource supplies the most recent display messages.
type MessageSource interface {
	Recent(n int) []string
}

// Config controls dashboard refresh and layout.
type Config struct {
	Refresh      time.Duration
	MessageLines int
}

// DefaultConfig returns the default dashboard settings.
func DefaultConfig() Config {
	return Config{
		Refresh:      250 * time.Millisecond,
		MessageLines: 8,
	}
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	cfg      Config
	source   Source
	status   StatusSource
	messages MessageSource

	tasks    []blockq.TaskStatus
	counts   blockq.Counts
	sup      supervisor.Status
	recent   []string
	progress progress.Model

	width    int
	height   int
	quitting bool
}

// New creates a dashboard model. status and messages may be nil.
func New(cfg Config, source Source, status StatusSource, messages MessageSource) Model {
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultConfig().Refresh
	}
	m := Model{
		cfg:      cfg,
		source:   source,
		status:   status,
		messages: messages,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:    80,
	}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.tasks = m.source.Snapshot()
	m.counts = m.source.Counts()
	if m.status != nil {
		m.sup = m.status.Status()
	}
	if m.messages != nil && m.cfg.MessageLines > 0 {
		m.recent = m.messages.Recent(m.cfg.MessageLines)
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick(m.cfg.Refresh)
}

// Update handles key presses, resizes and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if r, ok := m.source.(Resetter); ok {
				r.ResetCounters()
				m.refresh()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 20
		if w < 10 {
			w = 10
		}
		if w > 60 {
			w = 60
		}
		m.progress.Width = w
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick(m.cfg.Refresh)
	}
	return m, nil
}

// GoalFraction is the scenario 1 consumer's progress toward GoalValue,
// clamped to 1 once the goal has been reached.
func (m Model) GoalFraction() float64 {
	if m.sup.GoalCount > 0 {
		return 1
	}
	f := float64(m.counts.Consumers[0]) / float64(blockq.GoalValue)
	if f > 1 {
		return 1
	}
	return f
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render("blockq"))
	b.WriteString("\n")
	b.WriteString(m.renderTasks())
	b.WriteString("\n\n")
	b.WriteString(m.renderLiveness())
	b.WriteString("\n")
	b.WriteString(m.renderGoal())
	if m.cfg.MessageLines > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderMessages())
	}
	b.WriteString("\n")
	help := styles.HelpKey.Render("q") + " quit"
	if _, ok := m.source.(Resetter); ok {
		help += "  " + styles.HelpKey.Render("r") + " reset counters"
	}
	b.WriteString(styles.HelpBar.Render(help))
	return b.String()
}

func (m Model) renderTasks() string {
	if len(m.tasks) == 0 {
		return styles.Muted.Render("no tasks running")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TableHeader.Width(10).Render("TASK"),
		styles.TableHeader.Width(6).Render("SCN"),
		styles.TableHeader.Width(6).Render("PRIO"),
		styles.TableHeader.Width(10).Render("STATE"),
		styles.TableHeader.Width(8).Render("COUNT"),
		styles.TableHeader.Width(8).Render("QUEUE"),
		styles.TableHeader.Render("ERR"),
	)
	rows := []string{header}
	for _, t := range m.tasks {
		errCell := styles.Muted.Render("-")
		if t.ErrorOccurred {
			errCell = styles.Error.Render("yes")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			styles.TableCell.Width(10).Render(t.Name),
			styles.TableCell.Width(6).Render(fmt.Sprintf("%d", t.Scenario)),
			styles.TableCell.Width(6).Render(fmt.Sprintf("%d", t.Priority)),
			styles.TableCell.Width(10).Render(styles.StateStyle(t.State).Render(t.State)),
			styles.TableCell.Width(8).Render(fmt.Sprintf("%d", t.Count)),
			styles.TableCell.Width(8).Render(fmt.Sprintf("%d/%d", t.QueueLen, t.QueueCap)),
			styles.TableCell.Render(errCell),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderLiveness() string {
	var badge string
	switch {
	case m.sup.Polls == 0:
		badge = styles.PendingBadge.Render("PENDING")
	case m.sup.LastLive:
		badge = styles.LiveBadge.Render("LIVE")
	default:
		badge = styles.StalledBadge.Render("STALLED")
	}

	line := fmt.Sprintf("%s polls %d, failed %d, errors %d",
		badge, m.sup.Polls, m.sup.FailedPolls, m.sup.Errors)
	if !m.sup.LastLive && m.sup.Polls > 0 {
		line += styles.Warning.Render("  stalled: " + util.JoinNames(m.sup.LastStalled, "none"))
	}
	return util.TruncateANSI(line, m.width)
}

func (m Model) renderGoal() string {
	label := styles.SectionTitle.Render(fmt.Sprintf("goal %d ", blockq.GoalValue))
	bar := m.progress.ViewAs(m.GoalFraction())
	if m.sup.GoalCount > 0 {
		bar += styles.Muted.Render(fmt.Sprintf(" fired %d", m.sup.GoalCount))
	}
	return label + bar
}

func (m Model) renderMessages() string {
	lines := []string{styles.SectionTitle.Render("messages")}
	if len(m.recent) == 0 {
		lines = append(lines, styles.Muted.Render("(none)"))
	}
	for _, msg := range m.recent {
		lines = append(lines, util.TruncateANSI(msg, m.width-4))
	}
	return styles.Section.Render(strings.Join(lines, "\n"))
}

// Run displays the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
