package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/mush/internal/builtin"
	"github.com/marcelocantos/mush/internal/interrupt"
	"github.com/marcelocantos/mush/internal/pipeline"
)

type sliceReader struct {
	lines []string
	err   error
}

func (r *sliceReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *sliceReader) Close() error { return nil }

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg)
	intr := interrupt.New(&stdout, nil)
	return &Shell{
		Exec: &pipeline.Executor{
			Builtins: reg,
			State:    builtin.NewStateAt(t.TempDir()),
			Guard:    intr,
			Stdin:    strings.NewReader(""),
			Stdout:   &stdout,
			Stderr:   &stderr,
		},
		Interrupt: intr,
	}, &stdout, &stderr
}

func TestLoopQuits(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	code := sh.Loop(context.Background(), &sliceReader{lines: []string{"echo a", "q", "echo b"}})
	require.Zero(t, code)
	require.Equal(t, "a\n", stdout.String())
}

func TestLoopReadError(t *testing.T) {
	sh, _, stderr := newTestShell(t)
	code := sh.Loop(context.Background(), &sliceReader{err: errors.New("boom")})
	require.Equal(t, 1, code)
	require.Equal(t, "mush: read: boom\n", stderr.String())
}

func TestRunLineReportsEverySyntaxError(t *testing.T) {
	sh, stdout, stderr := newTestShell(t)
	require.NoError(t, sh.RunLine(context.Background(), "cat < | sort > x | wc < y"))
	require.Empty(t, stdout.String())
	require.Equal(t,
		"cat <: no input redirect found\n"+
			"sort > x: ambiguous output\n"+
			"wc < y: ambiguous input\n",
		stderr.String())
}

func TestRunLineBuiltinStage(t *testing.T) {
	sh, _, stderr := newTestShell(t)
	require.NoError(t, sh.RunLine(context.Background(), "ls | cd /"))
	require.Equal(t, "cd /: can only cd in stage 0\n", stderr.String())
}

func TestRunLineBlank(t *testing.T) {
	sh, stdout, stderr := newTestShell(t)
	require.NoError(t, sh.RunLine(context.Background(), ""))
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}
