package shell

import "github.com/ivlev/animatedimage/internal/engine"

// PipelineDoneMsg is sent when a pipeline run finishes
type PipelineDoneMsg struct {
	Result *engine.Result
	Err    error
}

// SaveDoneMsg is sent when the library save finishes
type SaveDoneMsg struct {
	Location string
	Err      error
}
