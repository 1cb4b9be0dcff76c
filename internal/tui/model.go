package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shrinkray/internal/processor"
)

// LogLines is how many log entries the view keeps on screen.
const LogLines = 8

type Model struct {
	events   *processor.Channel
	stop     func()
	interval time.Duration
	bar      progress.Model

	width     int
	total     int
	processed int
	failed    int
	rate      float64
	eta       time.Duration
	lines     []string
	stopping  bool
	final     *processor.Event
}

type tickMsg time.Time

// NewModel polls events for progress. stop is called once when the user
// asks to quit; the model keeps running until the session reports a
// terminal event.
func NewModel(events *processor.Channel, stop func()) Model {
	return Model{
		events:   events,
		stop:     stop,
		interval: processor.DefaultPollInterval,
		bar:      progress.New(progress.WithGradient(string(ColorAccentAlt), string(ColorAccent)), progress.WithWidth(40)),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		for _, e := range m.events.Drain() {
			m = m.Apply(e)
			if m.final != nil {
				return m, tea.Quit
			}
		}
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				if m.stop != nil {
					m.stop()
				}
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(60, max(20, msg.Width-10))
		return m, nil
	default:
		return m, nil
	}
}

// Apply folds one session event into the model.
func (m Model) Apply(e processor.Event) Model {
	switch e.Kind {
	case processor.EventTotal:
		m.total = e.Total
	case processor.EventProgress:
		m.processed, m.failed, m.total = e.Processed, e.Failed, e.Total
		m.rate, m.eta = e.Rate, e.ETA
	}
	if e.Text != "" {
		m.lines = append(m.lines, e.Time.Format(time.TimeOnly)+"  "+e.Text)
		if len(m.lines) > LogLines {
			m.lines = m.lines[len(m.lines)-LogLines:]
		}
	}
	if e.Terminal() {
		final := e
		m.final = &final
	}
	return m
}

// Final returns the terminal event that ended the session, if one arrived.
func (m Model) Final() (processor.Event, bool) {
	if m.final == nil {
		return processor.Event{}, false
	}
	return *m.final, true
}

func (m Model) View() string {
	if m.final != nil {
		return ""
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = min(1, float64(m.processed)/float64(m.total))
	}

	status := fmt.Sprintf("%.1f img/s", m.rate)
	if m.eta > 0 {
		status += "  ETA " + m.eta.Round(time.Second).String()
	}

	lines := []string{
		titleStyle.Render("shrinkray"),
		labelStyle.Render(fmt.Sprintf("Images: %d/%d", m.processed, m.total)) + dimStyle.Render(fmt.Sprintf("  failed:%d", m.failed)),
		dimStyle.Render(status),
		m.bar.ViewAs(ratio),
		"",
	}
	for _, l := range m.lines {
		lines = append(lines, logStyle.Render(l))
	}

	hint := "q to stop"
	if m.stopping {
		hint = "stopping; waiting for jobs in progress"
	}
	lines = append(lines, "", WarnStyle.Render(hint))
	return strings.Join(lines, "\n")
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	logStyle   = lipgloss.NewStyle().Foreground(ColorInk)
)
