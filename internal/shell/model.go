// Package shell is the terminal front end: it runs the pipeline, shows
// progress and offers to save the result to the media library.
package shell

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/animatedimage/internal/engine"
	"github.com/ivlev/animatedimage/internal/library"
	"github.com/ivlev/animatedimage/internal/task"
)

// State of the shell state machine
type State string

const (
	StateRunning State = "running"
	StateReady   State = "ready"
	StateConfirm State = "confirm"
	StateSaving  State = "saving"
	StateSaved   State = "saved"
	StateError   State = "error"
)

// Runner starts a pipeline run; *engine.Pipeline satisfies it.
type Runner interface {
	Start(ctx context.Context) *task.Task[*engine.Result]
}

type Model struct {
	State   State
	Result  *engine.Result
	SavedTo string
	Err     error

	ctx     context.Context
	runner  Runner
	library library.Library
	spinner spinner.Model
}

// NewModel creates the shell; lib may be nil, which disables saving.
func NewModel(ctx context.Context, runner Runner, lib library.Library) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		State:   StateRunning,
		ctx:     ctx,
		runner:  runner,
		library: lib,
		spinner: s,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, runPipeline(m.ctx, m.runner))
}
