package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/marcelocantos/mush/internal/builtin"
)

// NotRun is the status of a stage that was never spawned.
const NotRun = -1

// SpawnGuard brackets the window in which children are being spawned.
// Interrupts that arrive inside the window are deferred until it closes.
type SpawnGuard interface {
	Hold() (release func())
}

// Executor runs compiled pipelines as chains of OS processes.
type Executor struct {
	Builtins *builtin.Registry
	State    *builtin.State
	Guard    SpawnGuard
	Log      *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result describes a finished pipeline.
type Result struct {
	Builtin bool  // stage 0 ran as a builtin; nothing was spawned
	Status  []int // exit status per stage, NotRun if never spawned
}

// Run executes p and waits for every child it spawned.
//
// A *SyntaxError means nothing was spawned. A *ResourceError means the
// orchestrator's own descriptors can no longer be trusted; children that
// were spawned before it are still reaped. Execution failures confined to
// one stage (redirect file, exec) are reported on Stderr and leave err nil.
func (e *Executor) Run(ctx context.Context, p *Pipeline) (*Result, error) {
	res := &Result{Status: make([]int, len(p.Stages))}
	for i := range res.Status {
		res.Status[i] = NotRun
	}
	if len(p.Stages) == 0 {
		return res, nil
	}

	var mu sync.Mutex
	stdout := shareable(e.Stdout, &mu)
	stderr := shareable(e.Stderr, &mu)

	// Builtins change this process, so they run only as the whole of stage 0.
	for i := 1; i < len(p.Stages); i++ {
		st := &p.Stages[i]
		if _, ok := e.lookupBuiltin(st.Program()); ok {
			return res, &SyntaxError{Stage: st.Text, Msg: fmt.Sprintf(MsgBuiltinStage, st.Program())}
		}
	}
	if b, ok := e.lookupBuiltin(p.Stages[0].Program()); ok {
		res.Builtin = true
		res.Status[0] = 0
		if err := b.Run(e.State, p.Stages[0].Args); err != nil {
			fmt.Fprintln(stderr, err)
			res.Status[0] = 1
		}
		e.logger().Debug("builtin", zap.Strings("args", p.Stages[0].Args), zap.String("dir", e.State.Dir()))
		return res, nil
	}

	cmds, err := e.spawnAll(ctx, p, stdout, stderr)
	for i, cmd := range cmds {
		if cmd != nil {
			res.Status[i] = e.wait(cmd)
		}
	}
	return res, err
}

// spawnAll starts every stage left to right without waiting in between.
// The returned slice holds the started commands; nil entries were skipped.
func (e *Executor) spawnAll(ctx context.Context, p *Pipeline, stdout, stderr io.Writer) (cmds []*exec.Cmd, err error) {
	if e.Guard != nil {
		release := e.Guard.Hold()
		defer release()
	}

	var win pipeWindow
	defer func() {
		if cerr := win.close(); err == nil {
			err = cerr
		}
	}()

	cmds = make([]*exec.Cmd, len(p.Stages))
	for i := range p.Stages {
		st := &p.Stages[i]
		if !st.IsLast() {
			if err := win.open(); err != nil {
				return cmds, err
			}
		}

		cmd, err := e.start(ctx, st, win.input(), win.output(), stdout, stderr)
		var rerr *ResourceError
		switch {
		case errors.As(err, &rerr):
			return cmds, err
		case err != nil:
			// The stage is skipped; its neighbours see EOF or EPIPE once
			// the window drops the pipe ends meant for it.
			fmt.Fprintln(stderr, err)
		default:
			cmds[i] = cmd
		}

		if err := win.advance(); err != nil {
			return cmds, err
		}
	}
	return cmds, nil
}

// start spawns one stage. in and out are the pipe ends for this position
// (nil at the pipeline's edges); redirect files and the executor's own
// streams fill the rest. The child receives exactly three descriptors.
func (e *Executor) start(ctx context.Context, st *Stage, in, out *os.File, stdout, stderr io.Writer) (*exec.Cmd, error) {
	path, err := e.lookPath(st.Program())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.Program(), err)
	}

	cmd := exec.CommandContext(ctx, path, st.Args[1:]...)
	cmd.Args = st.Args
	cmd.Dir = e.State.Dir()
	cmd.Env = e.State.Environ()
	cmd.Stderr = stderr

	switch {
	case in != nil:
		cmd.Stdin = in
	case st.RedirectIn != "":
		f, err := os.Open(e.State.Resolve(st.RedirectIn))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.RedirectIn, unwrapPath(err))
		}
		defer f.Close()
		cmd.Stdin = f
	case e.Stdin != nil:
		cmd.Stdin = e.Stdin
	}

	switch {
	case st.RedirectOut != "":
		f, err := os.OpenFile(e.State.Resolve(st.RedirectOut), os.O_RDWR|os.O_CREATE|os.O_TRUNC, RedirectPerm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.RedirectOut, unwrapPath(err))
		}
		defer f.Close()
		cmd.Stdout = f
	case out != nil:
		cmd.Stdout = out
	default:
		cmd.Stdout = stdout
	}

	if err := cmd.Start(); err != nil {
		if isResourceErrno(err) {
			return nil, &ResourceError{Op: "fork", Err: err}
		}
		return nil, fmt.Errorf("%s: %w", st.Program(), unwrapPath(err))
	}
	e.logger().Debug("spawned",
		zap.Int("stage", st.Index),
		zap.String("program", path),
		zap.Int("pid", cmd.Process.Pid))
	return cmd, nil
}

// wait reaps cmd and returns its exit status, 128+signal if it was killed.
func (e *Executor) wait(cmd *exec.Cmd) int {
	err := cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		e.logger().Warn("wait", zap.String("program", cmd.Path), zap.Error(err))
	}
	if cmd.ProcessState == nil {
		return NotRun
	}
	status := cmd.ProcessState.ExitCode()
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status = 128 + int(ws.Signal())
	}
	e.logger().Debug("exited",
		zap.String("program", cmd.Path),
		zap.Int("pid", cmd.ProcessState.Pid()),
		zap.Int("status", status))
	return status
}

// lookPath resolves a program name. Names with a slash are taken relative
// to the shell's working directory; bare names are searched in PATH.
func (e *Executor) lookPath(name string) (string, error) {
	if !strings.Contains(name, "/") {
		path, err := exec.LookPath(name)
		if err != nil {
			var execErr *exec.Error
			if errors.As(err, &execErr) {
				return "", execErr.Err
			}
			return "", err
		}
		return path, nil
	}

	path := e.State.Resolve(name)
	fi, err := os.Stat(path)
	if err != nil {
		return "", unwrapPath(err)
	}
	if fi.IsDir() || fi.Mode().Perm()&0o111 == 0 {
		return "", syscall.EACCES
	}
	return path, nil
}

func (e *Executor) lookupBuiltin(name string) (builtin.Builtin, bool) {
	if e.Builtins == nil {
		return nil, false
	}
	return e.Builtins.Lookup(name)
}

func (e *Executor) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// unwrapPath strips the op and path from an *fs.PathError so diagnostics
// read "<name>: <reason>".
func unwrapPath(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

// isResourceErrno reports whether a spawn failed because the system is out
// of processes, memory or descriptors rather than because of the program.
func isResourceErrno(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case syscall.EAGAIN, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE:
		return true
	}
	return false
}
