package pipeline

import "fmt"

// Diagnostic messages for syntax errors.
const (
	MsgAmbiguousInput  = "ambiguous input"
	MsgAmbiguousOutput = "ambiguous output"
	MsgNoInput         = "no input redirect found"
	MsgNoOutput        = "no output redirect found"
	MsgBadInput        = "bad input redirection"
	MsgBadOutput       = "bad output redirection"
	MsgTooManyArgs     = "too many arguments"
	MsgNullCommand     = "invalid null command"
	MsgTooDeep         = "pipeline too deep"
	MsgTooLong         = "command too long"
	MsgBuiltinStage    = "can only %s in stage 0"
)

// SyntaxError is a user mistake in a line. The pipeline it belongs to is
// abandoned before anything is spawned.
type SyntaxError struct {
	Stage string // offending stage text; empty for pipeline-level errors
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Stage == "" {
		return e.Msg
	}
	return e.Stage + ": " + e.Msg
}

// ResourceError is an OS-level failure of the orchestrator itself (pipe,
// close, spawn plumbing). The shell cannot trust its own descriptors after
// one, so callers terminate.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
