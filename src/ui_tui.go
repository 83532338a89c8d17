package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type phase int

const (
	phaseResolving phase = iota
	phaseReview
	phaseExecuting
	phaseDone
)

// renameProgress tracks plan/execution progress for the TUI
type renameProgress struct {
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
}

type model struct {
	config *Config
	cache  *TimestampCache
	files  []string

	currentPhase phase
	spinner      spinner.Model
	progress     progress.Model

	// The plan is always computed with the simulated strategy; accepting
	// it re-runs the same batch live, which lands on the same decisions.
	plan []RenameResult

	renameProg renameProgress
	statusMsg  string

	planProgress chan renameProgress
	execProgress chan renameProgress

	selected     int
	scrollOffset int
	width        int
	height       int

	err error
}

type planReadyMsg struct {
	plan []RenameResult
}

type executionCompleteMsg struct {
	renamed int
	failed  int
	skipped int
}

type progressMsg renameProgress
type errMsg error

func initialModel(config *Config, cache *TimestampCache, files []string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	p.Width = 60

	return model{
		config:       config,
		cache:        cache,
		files:        files,
		spinner:      s,
		progress:     p,
		currentPhase: phaseResolving,
		statusMsg:    fmt.Sprintf("Resolving timestamps for %d files...", len(files)),
		planProgress: make(chan renameProgress, 100),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		buildPlan(m.config, m.cache, m.files, m.planProgress),
		waitForProgress(m.planProgress),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		progressWidth := msg.Width - 35
		if progressWidth < 20 {
			progressWidth = 20
		}
		m.progress.Width = progressWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "y", "a", "enter":
			if m.currentPhase == phaseReview {
				if m.config.Simulate {
					// Simulation mode never applies the plan
					return m, tea.Quit
				}
				m.currentPhase = phaseExecuting
				m.statusMsg = "Renaming files..."
				m.renameProg = renameProgress{}
				m.execProgress = make(chan renameProgress, 100)
				return m, tea.Batch(
					executePlan(m.config, m.cache, m.files, m.execProgress),
					waitForProgress(m.execProgress),
				)
			}
			if m.currentPhase == phaseDone {
				return m, tea.Quit
			}

		case "n", "r":
			if m.currentPhase == phaseReview {
				return m, tea.Quit
			}

		case "up", "k":
			if m.currentPhase == phaseReview && m.selected > 0 {
				m.selected--
				if m.selected < m.scrollOffset {
					m.scrollOffset = m.selected
				}
			}

		case "down", "j":
			if m.currentPhase == phaseReview && m.selected < len(m.plan)-1 {
				m.selected++
				maxVisible := m.height - 15
				if m.selected >= m.scrollOffset+maxVisible {
					m.scrollOffset = m.selected - maxVisible + 1
				}
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.renameProg = renameProgress(msg)
		if m.currentPhase == phaseResolving && m.planProgress != nil {
			return m, waitForProgress(m.planProgress)
		}
		if m.currentPhase == phaseExecuting && m.execProgress != nil {
			return m, waitForProgress(m.execProgress)
		}
		return m, nil

	case planReadyMsg:
		m.plan = msg.plan
		m.currentPhase = phaseReview
		if m.config.Simulate {
			m.statusMsg = "Review rename plan (simulation)"
		} else {
			m.statusMsg = "Review rename plan"
		}
		return m, nil

	case executionCompleteMsg:
		m.currentPhase = phaseDone
		m.statusMsg = fmt.Sprintf("Complete! %d renamed, %d skipped, %d failed",
			msg.renamed, msg.skipped, msg.failed)
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit", m.err)
	}

	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(titleStyle.Render("exif-rename"))
	b.WriteString("\n\n")

	if m.currentPhase != phaseReview && m.currentPhase != phaseDone {
		configStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginLeft(2)
		modeStr := map[bool]string{true: "SIMULATE", false: "RENAME"}[m.config.Simulate]
		b.WriteString(configStyle.Render(fmt.Sprintf(
			"%d files | Sources: %s | Format: %s | %s",
			len(m.files),
			sourceNames(m.config.DateSources),
			m.config.DateFormat,
			modeStr,
		)))
		b.WriteString("\n\n")
	}

	b.WriteString("  ")
	phases := []string{"Resolving", "Review", "Executing", "Done"}
	for i, name := range phases {
		if i > 0 {
			b.WriteString(" → ")
		}
		if int(m.currentPhase) == i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render(name))
		} else if int(m.currentPhase) > i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("✓"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(name))
		}
	}
	b.WriteString("\n\n")

	switch m.currentPhase {
	case phaseResolving, phaseExecuting:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.statusMsg))

		if m.renameProg.TotalFiles > 0 {
			percent := float64(m.renameProg.ProcessedFiles) / float64(m.renameProg.TotalFiles)
			b.WriteString("  ")
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString(fmt.Sprintf(" %d%% (%d/%d files)\n\n",
				int(percent*100),
				m.renameProg.ProcessedFiles,
				m.renameProg.TotalFiles))
		}

		if m.renameProg.CurrentFile != "" {
			maxLen := m.width - 20
			if maxLen < 40 {
				maxLen = 40
			}
			fileStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				MarginLeft(2)
			b.WriteString(fmt.Sprintf("\n%s", fileStyle.Render(truncatePath(m.renameProg.CurrentFile, maxLen))))
		}

	case phaseReview:
		b.WriteString(m.renderReview())

	case phaseDone:
		doneStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true).
			MarginLeft(2)
		b.WriteString(doneStyle.Render("✓ " + m.statusMsg))
		b.WriteString("\n\n")
	}

	b.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	switch m.currentPhase {
	case phaseReview:
		if m.config.Simulate {
			b.WriteString(helpStyle.Render("↑/↓: navigate • enter/q: quit (simulation)"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓: navigate • y/a/enter: accept & rename • n/r: reject & quit • q: quit"))
		}
	case phaseDone:
		b.WriteString(helpStyle.Render("enter: quit • q: quit"))
	default:
		b.WriteString(helpStyle.Render("q: quit"))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) renderReview() string {
	var b strings.Builder

	var renames, matched, skipped int
	for _, res := range m.plan {
		switch res.State {
		case StateRenamed:
			renames++
		case StateMatched:
			matched++
		default:
			skipped++
		}
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(boxStyle.Render(fmt.Sprintf(
		"Total: %d files • Renames: %d • Already named: %d • Skipped: %d",
		len(m.plan), renames, matched, skipped,
	)))
	b.WriteString("\n\n")

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		MarginLeft(2)
	b.WriteString(headerStyle.Render("Plan:"))
	b.WriteString("\n\n")

	maxVisible := m.height - 15
	start := m.scrollOffset
	end := start + maxVisible
	if end > len(m.plan) {
		end = len(m.plan)
	}

	for i := start; i < end; i++ {
		res := m.plan[i]

		var line string
		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				MarginLeft(2)
			line = selectedStyle.Render("► " + truncatePath(res.String(), m.width-8))
		} else {
			line = "    " + truncatePath(res.String(), m.width-8)
		}

		b.WriteString(line)
		b.WriteString("\n")

		if i == m.selected && res.Err != nil {
			errStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				MarginLeft(2)
			b.WriteString(errStyle.Render("    " + strings.ReplaceAll(res.Err.Error(), "\n", "; ")))
			b.WriteString("\n")
		}
	}

	if len(m.plan) > maxVisible {
		moreStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginLeft(2)
		b.WriteString(moreStyle.Render(fmt.Sprintf("\n... %d more files ...", len(m.plan)-end)))
	}

	return b.String()
}

// Commands

func buildPlan(config *Config, cache *TimestampCache, files []string, progressChan chan renameProgress) tea.Cmd {
	return func() tea.Msg {
		var plan []RenameResult

		done := make(chan error, 1)
		go func() {
			renamer := NewRenamer(config, cache, NewSimulatedStrategy(), func(res RenameResult) {
				plan = append(plan, res)
				select {
				case progressChan <- renameProgress{
					TotalFiles:     len(files),
					ProcessedFiles: len(plan),
					CurrentFile:    res.Path,
				}:
				default:
				}
			})
			done <- renamer.Run(files)
			close(progressChan)
		}()

		if err := <-done; err != nil {
			return errMsg(err)
		}
		return planReadyMsg{plan: plan}
	}
}

func executePlan(config *Config, cache *TimestampCache, files []string, progressChan chan renameProgress) tea.Cmd {
	return func() tea.Msg {
		var renamed, failed, skipped, processed int

		done := make(chan error, 1)
		go func() {
			renamer := NewRenamer(config, cache, NewLiveStrategy(config.MvCmd), func(res RenameResult) {
				processed++
				switch {
				case res.State == StateRenamed && res.Err == nil:
					renamed++
				case res.State == StateRenamed:
					failed++
				default:
					skipped++
				}
				select {
				case progressChan <- renameProgress{
					TotalFiles:     len(files),
					ProcessedFiles: processed,
					CurrentFile:    res.Path,
				}:
				default:
				}
			})
			done <- renamer.Run(files)
			close(progressChan)
		}()

		if err := <-done; err != nil {
			return errMsg(err)
		}
		return executionCompleteMsg{renamed: renamed, failed: failed, skipped: skipped}
	}
}

// waitForProgress polls the progress channel and sends updates
func waitForProgress(progressChan <-chan renameProgress) tea.Cmd {
	return func() tea.Msg {
		prog, ok := <-progressChan
		if !ok {
			return nil
		}
		return progressMsg(prog)
	}
}

func sourceNames(sources []DateSource) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}

	return path[:maxLen]
}
