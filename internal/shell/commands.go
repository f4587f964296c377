package shell

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/animatedimage/internal/library"
)

// runPipeline starts a run and reports its single result back to the
// update loop.
func runPipeline(ctx context.Context, r Runner) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Start(ctx).Await(ctx)
		return PipelineDoneMsg{Result: res, Err: err}
	}
}

func saveVideo(ctx context.Context, lib library.Library, path string) tea.Cmd {
	return func() tea.Msg {
		loc, err := lib.Save(ctx, path)
		return SaveDoneMsg{Location: loc, Err: err}
	}
}
