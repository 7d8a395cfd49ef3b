package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// LineReader yields command lines without their trailing newline.
// It returns io.EOF once input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// isInteractive reports whether the shell should prompt: both ends must
// be terminals.
func isInteractive(in, out *os.File) bool {
	if in == nil || out == nil {
		return false
	}
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// scanReader reads lines from a script or a non-terminal stdin.
type scanReader struct {
	r *bufio.Reader
	c io.Closer
}

func newScanReader(r io.Reader) *scanReader {
	sr := &scanReader{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok && r != os.Stdin {
		sr.c = c
	}
	return sr
}

func (s *scanReader) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		// A final line without a newline still runs.
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *scanReader) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// promptReader is the interactive line editor.
type promptReader struct {
	rl *readline.Instance
}

func newPromptReader(prompt string) (*promptReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.New(color.FgGreen, color.Bold).Sprint(prompt),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, err
	}
	return &promptReader{rl: rl}, nil
}

// ReadLine returns an empty line for ^C so the caller simply prompts again.
func (p *promptReader) ReadLine() (string, error) {
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}

func (p *promptReader) Close() error {
	return p.rl.Close()
}
