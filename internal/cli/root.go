// Package cli is the mush command line: flag handling, the choice between
// interactive and scripted input, and the read-compile-run loop.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcelocantos/mush/internal/audit"
	"github.com/marcelocantos/mush/internal/builtin"
	"github.com/marcelocantos/mush/internal/config"
	"github.com/marcelocantos/mush/internal/interrupt"
	"github.com/marcelocantos/mush/internal/logging"
	"github.com/marcelocantos/mush/internal/pipeline"
)

type options struct {
	configPath string
	auditOp    string
}

// Execute runs mush with the process arguments and returns its exit status.
func Execute(version string) int {
	code := 0
	cmd := newRootCommand(version, afero.NewOsFs(), &code)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mush: %v\n", err)
		return 1
	}
	return code
}

func newRootCommand(version string, fs afero.Fs, code *int) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "mush [script]",
		Short:         "A minimal pipeline shell",
		Long:          "mush runs lines of the form prog [args] [< in] | prog [args] | ... [> out].",
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = run(cmd, fs, opts, args)
			return nil
		},
	}
	cmd.SetVersionTemplate("mush {{.Version}}\n")
	cmd.Flags().StringVar(&opts.configPath, "config", config.ConfigPath(), "config file path")
	cmd.Flags().StringVar(&opts.auditOp, "audit", "", "audit log operation: verify or tail")
	return cmd
}

func run(cmd *cobra.Command, fs afero.Fs, opts options, args []string) int {
	stdin, stdout, stderr := cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.LoadFrom(fs, opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "mush: config: %v\n", err)
		return 1
	}

	if opts.auditOp != "" {
		return RunAudit(stdout, fs, cfg.Audit.Path, opts.auditOp)
	}

	session := logging.NewSession()
	log, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Path:        cfg.Log.Path,
	}, session)
	if err != nil {
		fmt.Fprintf(stderr, "mush: log: %v\n", err)
		return 1
	}
	defer log.Sync()

	state, err := builtin.NewState()
	if err != nil {
		fmt.Fprintf(stderr, "mush: %v\n", err)
		return 1
	}
	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg)

	intr := interrupt.New(stdout, log)
	intr.Listen()
	defer intr.Stop()

	sh := &Shell{
		Exec: &pipeline.Executor{
			Builtins: reg,
			State:    state,
			Guard:    intr,
			Log:      log,
			Stdin:    stdin,
			Stdout:   stdout,
			Stderr:   stderr,
		},
		Interrupt: intr,
		Log:       log,
	}

	if cfg.Audit.Path != "" {
		al, err := audit.NewLogger(fs, cfg.Audit.Path, session)
		if err != nil {
			// Continue without audit logging.
			fmt.Fprintf(stderr, "mush: audit: %v\n", err)
		} else {
			sh.Audit = al
		}
	}

	r, err := openReader(stdin, stdout, cfg.Prompt, args)
	if err != nil {
		fmt.Fprintf(stderr, "mush: %v\n", err)
		return 1
	}
	defer r.Close()

	log.Info("started", zap.Bool("script", len(args) == 1), zap.String("dir", state.Dir()))
	code := sh.Loop(context.Background(), r)
	log.Info("exiting", zap.Int("status", code))
	return code
}

// openReader picks the line source: the script named in args, the
// interactive editor when stdin and stdout are terminals, or plain stdin.
func openReader(stdin io.Reader, stdout io.Writer, prompt string, args []string) (LineReader, error) {
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		return newScanReader(f), nil
	}

	in, _ := stdin.(*os.File)
	out, _ := stdout.(*os.File)
	if isInteractive(in, out) {
		return newPromptReader(prompt)
	}
	return newScanReader(stdin), nil
}
