package shell

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case PipelineDoneMsg:
		return m.handlePipelineDone(msg)
	case SaveDoneMsg:
		return m.handleSaveDone(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	switch m.State {
	case StateReady, StateSaved:
		switch msg.String() {
		case "s", "S":
			if m.library == nil {
				m.Err = fmt.Errorf("media library is not configured")
				return m, nil
			}
			m.Err = nil
			m.State = StateConfirm
		case "r", "R":
			return m.restart()
		}
	case StateConfirm:
		switch msg.String() {
		case "y", "Y", "enter":
			m.State = StateSaving
			return m, tea.Batch(m.spinner.Tick, saveVideo(m.ctx, m.library, m.Result.OutputPath))
		case "n", "N", "esc":
			m.State = StateReady
		}
	case StateError:
		if msg.String() == "r" || msg.String() == "R" {
			return m.restart()
		}
	}
	return m, nil
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	m.State = StateRunning
	m.Result = nil
	m.SavedTo = ""
	m.Err = nil
	return m, tea.Batch(m.spinner.Tick, runPipeline(m.ctx, m.runner))
}

func (m Model) handlePipelineDone(msg PipelineDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}
	m.State = StateReady
	m.Result = msg.Result
	return m, nil
}

func (m Model) handleSaveDone(msg SaveDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// видео на месте, можно попробовать снова
		m.State = StateReady
		m.Err = fmt.Errorf("save failed: %w", msg.Err)
		return m, nil
	}
	m.State = StateSaved
	m.SavedTo = msg.Location
	return m, nil
}
