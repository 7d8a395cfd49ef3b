package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/marcelocantos/mush/internal/audit"
	"github.com/marcelocantos/mush/internal/interrupt"
	"github.com/marcelocantos/mush/internal/pipeline"
)

// QuitCommand ends the shell when typed on a line by itself.
const QuitCommand = "q"

// Shell reads command lines and runs them one pipeline at a time.
type Shell struct {
	Exec      *pipeline.Executor
	Interrupt *interrupt.Coordinator // optional
	Audit     *audit.Logger          // optional
	Log       *zap.Logger
}

// Loop runs lines from r until input ends or the user quits, and returns
// the process exit status: 0 normally, 1 after a fatal resource error.
func (s *Shell) Loop(ctx context.Context, r LineReader) int {
	for {
		s.resetPrompt()
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(s.Exec.Stderr, "mush: read: %v\n", err)
			return 1
		}

		line = strings.TrimSpace(line)
		if line == QuitCommand {
			return 0
		}
		if err := s.RunLine(ctx, line); err != nil {
			fmt.Fprintf(s.Exec.Stderr, "mush: %v\n", err)
			return 1
		}
	}
}

// RunLine compiles and runs one line. Syntax and execution diagnostics go
// to the executor's stderr; only a *pipeline.ResourceError is returned.
func (s *Shell) RunLine(ctx context.Context, line string) error {
	start := time.Now()

	p, err := pipeline.Compile(line)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(s.Exec.Stderr, e)
		}
		s.record(audit.Record{Line: line, Err: err}, start)
		return nil
	}
	if p == nil {
		return nil
	}
	s.logger().Debug("compiled", zap.String("line", line), zap.Int("stages", len(p.Stages)))

	res, err := s.Exec.Run(ctx, p)
	s.resetPrompt()

	rec := audit.Record{Line: line, Stages: p.Programs(), Err: err}
	if res != nil {
		rec.Status = res.Status
	}
	s.record(rec, start)

	var rerr *pipeline.ResourceError
	switch {
	case errors.As(err, &rerr):
		return err
	case err != nil:
		fmt.Fprintln(s.Exec.Stderr, err)
	}
	return nil
}

func (s *Shell) resetPrompt() {
	if s.Interrupt != nil {
		s.Interrupt.Reset()
	}
}

func (s *Shell) record(r audit.Record, start time.Time) {
	if s.Audit == nil {
		return
	}
	r.Duration = time.Since(start)
	r.Cwd = s.Exec.State.Dir()
	if err := s.Audit.Log(r); err != nil {
		s.logger().Warn("audit", zap.Error(err))
	}
}

func (s *Shell) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
