package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/railcat/internal/output"
)

// TUIRenderer provides a rich terminal UI using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *buildModel
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !output.IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{
		cfg:   cfg,
		model: newBuildModel(cfg.Title, cfg.NoColor || output.DetectNoColor()),
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.send(progressMsg(event))
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.send(errorMsg(event))
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.send(completeMsg(stats))
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(msg)
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()

	// Do not hang on an unresponsive terminal.
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

// Message types for bubbletea
type progressMsg ProgressEvent
type errorMsg ErrorEvent
type completeMsg CompletionStats

// buildModel is the bubbletea model for build progress.
type buildModel struct {
	title    string
	event    ProgressEvent
	warnings int
	errors   int
	complete bool
	stats    CompletionStats
	quitting bool

	spinner spinner.Model
	bar     progress.Model
	styles  output.Styles
}

func newBuildModel(title string, noColor bool) *buildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorGreen))

	return &buildModel{
		title:   title,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(output.ColorGreen),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		styles: output.GetStyles(noColor),
	}
}

// Init implements tea.Model.
func (m *buildModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(msg.Width-30, 20)

	case progressMsg:
		m.event = ProgressEvent(msg)

	case errorMsg:
		if msg.IsWarn {
			m.warnings++
		} else {
			m.errors++
		}

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *buildModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	lines := []string{m.styles.Header.Render(m.header()), m.renderStages(), m.renderProgress()}
	if status := m.renderStatus(); status != "" {
		lines = append(lines, status)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *buildModel) header() string {
	if m.title == "" {
		return "railcat"
	}
	return "railcat • " + m.title
}

// renderStages renders the pipeline stage indicators.
func (m *buildModel) renderStages() string {
	stages := []Stage{StageLoading, StageBuilding, StageIndexing, StageExporting}
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		switch {
		case s < m.event.Stage:
			parts = append(parts, m.styles.Success.Render("● "+s.String()))
		case s == m.event.Stage:
			parts = append(parts, m.spinner.View()+" "+s.String())
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+s.String()))
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

// renderProgress renders the progress bar of the current stage.
func (m *buildModel) renderProgress() string {
	e := m.event
	if e.Total == 0 {
		return m.styles.Dim.Render("Preparing...")
	}
	percent := float64(e.Current) / float64(e.Total)
	return fmt.Sprintf("%s  %3.0f%%  %s",
		m.bar.ViewAs(percent),
		percent*100,
		m.styles.Label.Render(fmt.Sprintf("%d / %d %s", e.Current, e.Total, e.Stage.unit())))
}

func (m *buildModel) renderStatus() string {
	var parts []string
	if m.warnings > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", m.warnings)))
	}
	if m.errors > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", m.errors)))
	}
	return strings.Join(parts, "  ")
}

// renderComplete renders the completion summary.
func (m *buildModel) renderComplete() string {
	lines := []string{
		m.styles.Success.Render("✓ Catalogue built"),
		fmt.Sprintf("%s %d", m.styles.Label.Render("Files:    "), m.stats.Files),
		fmt.Sprintf("%s %d", m.styles.Label.Render("Documents:"), m.stats.Documents),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Duration: "), m.stats.Duration.Round(time.Millisecond)),
	}
	if m.stats.Issues > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("⚠ %d issues", m.stats.Issues)))
	}
	if m.stats.Path != "" {
		lines = append(lines, fmt.Sprintf("%s %s", m.styles.Label.Render("Snapshot: "), m.stats.Path))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(output.ColorGreen)).
		Padding(0, 1)
	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// Ensure both renderers implement Renderer
var (
	_ Renderer = (*TUIRenderer)(nil)
	_ Renderer = (*PlainRenderer)(nil)
)
