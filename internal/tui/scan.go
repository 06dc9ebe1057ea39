// Package tui renders live scan progress in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/progress"
	"github.com/lu-zhengda/reclaim/internal/utils"
)

// ScanFunc runs a scan, reporting snapshots to sink.
type ScanFunc func(sink progress.Sink) (*engine.Result, error)

type progressMsg progress.ScanProgress

type scanDoneMsg struct {
	result *engine.Result
	err    error
}

// ScanModel shows one running scan. Pressing q, esc or ctrl+c cancels
// the scan's token; the model then waits for the scan to wind down.
type ScanModel struct {
	root  string
	token *cancel.Token
	run   ScanFunc

	updates chan progress.ScanProgress
	done    chan scanDoneMsg

	spinner spinner.Model
	bar     bar.Model

	last       progress.ScanProgress
	result     *engine.Result
	err        error
	cancelling bool
	finished   bool
	width      int
}

func NewScanModel(root string, token *cancel.Token, run ScanFunc) ScanModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return ScanModel{
		root:    root,
		token:   token,
		run:     run,
		updates: make(chan progress.ScanProgress, 16),
		done:    make(chan scanDoneMsg, 1),
		spinner: sp,
		bar:     bar.New(bar.WithDefaultGradient(), bar.WithWidth(40)),
		last:    progress.ScanProgress{Phase: progress.PhaseWalking},
		width:   80,
	}
}

func (m ScanModel) Init() tea.Cmd {
	go func() {
		res, err := m.run(func(p progress.ScanProgress) {
			// Progress is advisory: drop snapshots rather than stall the walk.
			select {
			case m.updates <- p:
			default:
			}
		})
		m.done <- scanDoneMsg{result: res, err: err}
	}()
	return tea.Batch(m.spinner.Tick, m.waitForProgress(), m.waitForDone())
}

func (m ScanModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		return progressMsg(<-m.updates)
	}
}

func (m ScanModel) waitForDone() tea.Cmd {
	return func() tea.Msg {
		return <-m.done
	}
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.cancelling {
				m.cancelling = true
				m.token.Cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case progressMsg:
		m.last = progress.ScanProgress(msg)
		return m, m.waitForProgress()

	case scanDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ScanModel) View() string {
	var b strings.Builder
	b.WriteString(renderHeader("scan", m.root))
	b.WriteString("\n")

	if m.finished {
		return b.String()
	}

	phase := m.last.Phase
	status := string(phase)
	if m.cancelling {
		status = "cancelling"
	}
	phaseStyle := lipgloss.NewStyle().Bold(true).Foreground(phaseColor(phase))
	b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), phaseStyle.Render(status)))
	b.WriteString(m.bar.ViewAs(m.last.Percentage/100) + "\n\n")

	b.WriteString(fmt.Sprintf("  files %d  dirs %d  %s\n",
		m.last.FilesScanned, m.last.DirsScanned, utils.FormatSize(int64(m.last.BytesProcessed))))
	if m.last.ETASeconds != nil {
		eta := time.Duration(*m.last.ETASeconds * float64(time.Second)).Round(time.Second)
		b.WriteString(dimStyle.Render(fmt.Sprintf("  about %s left", eta)) + "\n")
	}
	if m.last.CurrentPath != "" {
		b.WriteString(dimStyle.Render("  "+truncateLeft(m.last.CurrentPath, m.width-4)) + "\n")
	}
	if n := len(m.last.Warnings); n > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  %d warning(s)", n)) + "\n")
	}

	b.WriteString(renderFooter("q: cancel"))
	return b.String()
}

// Result returns the scan outcome once the model has finished.
func (m ScanModel) Result() (*engine.Result, error) {
	return m.result, m.err
}

// RunScan runs the scan under a full-screen progress view and returns its
// result.
func RunScan(root string, token *cancel.Token, run ScanFunc) (*engine.Result, error) {
	final, err := tea.NewProgram(NewScanModel(root, token, run)).Run()
	if err != nil {
		token.Cancel()
		return nil, fmt.Errorf("failed to run progress view: %w", err)
	}
	return final.(ScanModel).Result()
}

// RenderLargeFiles draws one share bar per file, for the summary printed
// after a scan.
func RenderLargeFiles(files []engine.LargeFile, limit int) string {
	if len(files) == 0 {
		return ""
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Largest files") + "\n")
	for _, f := range files {
		b.WriteString(fmt.Sprintf("%s %9s  %s\n", renderProgressBar(f.Share, 20), utils.FormatSize(f.Size), f.Path))
	}
	return b.String()
}
