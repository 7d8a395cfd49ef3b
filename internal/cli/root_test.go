package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fs     afero.Fs
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T, configYAML string) *harness {
	t.Helper()
	h := &harness{fs: afero.NewMemMapFs()}
	if configYAML != "" {
		require.NoError(t, afero.WriteFile(h.fs, "/cfg.yaml", []byte(configYAML), 0o644))
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) int {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	code := 0
	cmd := newRootCommand("test", h.fs, &code)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	cmd.SetArgs(append([]string{"--config", "/cfg.yaml"}, args...))
	require.NoError(t, cmd.Execute())
	return code
}

func TestRunScript(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	script := filepath.Join(dir, "script.mush")
	require.NoError(t, os.WriteFile(script, []byte(strings.Join([]string{
		"cd " + dir,
		"echo hello | tr h j",
		"",
		"pwd",
		"cat < | wc",
		"echo a 1 2 3 4 5 6 7 8 9 10",
		"  q  ",
		"echo never",
	}, "\n")), 0o644))

	h := newHarness(t, "audit:\n  path: /audit.jsonl\n")
	code := h.run(t, "", script)
	require.Zero(t, code)
	require.Equal(t, "jello\n"+dir+"\n", h.stdout.String())
	require.Equal(t,
		"cat <: no input redirect found\n"+
			"echo a 1 2 3 4 5 6 7 8 9 10: too many arguments\n",
		h.stderr.String())

	// Every non-blank line before q was audited, and the chain holds.
	require.Zero(t, h.run(t, "", "--audit", "verify"))
	require.Equal(t, "audit log integrity verified\n", h.stdout.String())

	require.Zero(t, h.run(t, "", "--audit", "tail"))
	require.Equal(t, 5, strings.Count(h.stdout.String(), `"seq"`))
	require.Contains(t, h.stdout.String(), "no input redirect found")
}

func TestRunStdin(t *testing.T) {
	h := newHarness(t, "")
	code := h.run(t, "echo one\nmush-no-such-program-xyz\necho two")
	require.Zero(t, code)
	require.Equal(t, "one\ntwo\n", h.stdout.String())
	require.True(t, strings.HasPrefix(h.stderr.String(), "mush-no-such-program-xyz: "), h.stderr.String())
}

func TestRunMissingScript(t *testing.T) {
	h := newHarness(t, "")
	code := h.run(t, "", filepath.Join(t.TempDir(), "missing"))
	require.Equal(t, 1, code)
	require.Contains(t, h.stderr.String(), "no such file or directory")
}

func TestRunBadConfig(t *testing.T) {
	h := newHarness(t, "log:\n  level: loud\n")
	require.Equal(t, 1, h.run(t, ""))
	require.True(t, strings.HasPrefix(h.stderr.String(), "mush: config: "), h.stderr.String())
}

func TestAuditWithoutPath(t *testing.T) {
	t.Setenv("MUSH_AUDIT_PATH", "")
	h := newHarness(t, "")
	require.Equal(t, 1, h.run(t, "", "--audit", "verify"))
	require.Equal(t, "mush audit: no audit.path configured\n", h.stdout.String())
}

func TestAuditUnknownOperation(t *testing.T) {
	h := newHarness(t, "audit:\n  path: /audit.jsonl\n")
	require.Equal(t, 1, h.run(t, "", "--audit", "show"))
	require.Contains(t, h.stdout.String(), `unknown operation "show"`)
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "")
	require.Zero(t, h.run(t, "", "--version"))
	require.Equal(t, "mush test\n", h.stdout.String())
}

func TestTooManyArguments(t *testing.T) {
	code := 0
	cmd := newRootCommand("test", afero.NewMemMapFs(), &code)
	cmd.SetArgs([]string{"a", "b"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}
