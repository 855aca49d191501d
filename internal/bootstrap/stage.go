package bootstrap

import "fmt"

// Stage is a step of the process bootstrap. Stages only move forward, one at
// a time.
type Stage int

const (
	StagePending Stage = iota
	StageRuntime
	StageWorkdir
	StageDependencies
	StagePort
	StageRunning
	StageStopped
)

var stageNames = [...]string{
	StagePending:      "pending",
	StageRuntime:      "runtime",
	StageWorkdir:      "workdir",
	StageDependencies: "dependencies",
	StagePort:         "port",
	StageRunning:      "running",
	StageStopped:      "stopped",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Next is the only stage s may advance to. Stopped is terminal.
func (s Stage) Next() Stage {
	if s >= StageStopped {
		return StageStopped
	}
	return s + 1
}

// StageError reports the stage the bootstrap failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("bootstrap stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
