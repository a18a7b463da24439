package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// progressMsg carries a batch progress update.
type progressMsg struct {
	done  int
	total int
}

// finishedMsg carries the final report once the batch settles.
type finishedMsg struct {
	report *models.Report
	err    error
}

// learnModel is the bubbletea model for learning batch progress.
type learnModel struct {
	progress progress.Model
	theme    Theme
	done     int
	total    int
	report   *models.Report
	err      error
	finished bool
	quitting bool
}

func newLearnModel(total int) learnModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return learnModel{
		progress: prog,
		theme:    defaultTheme,
		total:    total,
	}
}

// Init returns the initial command.
func (m learnModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m learnModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case finishedMsg:
		m.finished = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m learnModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m learnModel) renderContent() string {
	if m.finished {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[learning]")
	counts := fmt.Sprintf("%d/%d facts", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to abort")

	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

func (m learnModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Learning failed: %s\n", m.err))
	}
	if m.report == nil {
		return ""
	}
	return m.theme.completedStyle().Render("✓ Completed") + "\n\n" + renderReport(m.report, m.theme)
}

// renderReport formats a learning report for the terminal.
func renderReport(r *models.Report, theme Theme) string {
	out := fmt.Sprintf("  Accepted: %d\n  Merged:   %d\n  Rejected: %d\n",
		r.Accepted, r.Merged, r.Rejected)
	if len(r.Failed) > 0 {
		out += theme.errorStyle().Render(fmt.Sprintf("\nFailures (%d):\n", len(r.Failed)))
		for _, f := range r.Failed {
			out += fmt.Sprintf("  • #%d %q: %s\n", f.Index, f.Text, f.Err)
		}
	}
	return out
}

// RunLearnProgress drives the interactive progress UI while run executes a
// learning batch. run receives a progress callback safe to call from any
// goroutine.
func RunLearnProgress(total int, run func(progress func(done, total int)) (*models.Report, error)) (*models.Report, error) {
	p := tea.NewProgram(newLearnModel(total))

	go func() {
		report, err := run(func(done, total int) {
			p.Send(progressMsg{done: done, total: total})
		})
		p.Send(finishedMsg{report: report, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(learnModel)
	if !ok {
		return nil, nil
	}
	if m.quitting {
		return nil, fmt.Errorf("aborted")
	}
	return m.report, m.err
}
