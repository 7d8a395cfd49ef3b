package pipeline

// Tokens recognised inside a line. Whitespace is the only argument
// separator; there is no quoting.
const (
	OpPipe        = "|"
	OpRedirectIn  = "<"
	OpRedirectOut = ">"
)

// Limits on a single line.
const (
	MaxLine   = 512 // characters per line
	MaxStages = 10  // stages per pipeline
	MaxArgs   = 10  // arguments per stage, program name included
)

// RedirectPerm is the mode an output redirect file is created with, before umask.
const RedirectPerm = 0o666

// Stage is one element of a pipeline.
type Stage struct {
	Text        string   // trimmed stage text, used in diagnostics
	Args        []string // program name first, redirections removed
	RedirectIn  string   // file for stdin (<), empty if none
	RedirectOut string   // file for stdout (>), empty if none
	Index       int      // 0-based position in the pipeline
	Total       int      // number of stages in the pipeline
}

// Program returns the program name, or "" for a null command.
func (s *Stage) Program() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

func (s *Stage) IsFirst() bool { return s.Index == 0 }
func (s *Stage) IsLast() bool  { return s.Index == s.Total-1 }
func (s *Stage) IsOnly() bool  { return s.Total == 1 }

// Pipeline is the ordered list of stages compiled from one line.
type Pipeline struct {
	Line   string
	Stages []Stage
}

// Programs returns the program name of every stage.
func (p *Pipeline) Programs() []string {
	names := make([]string, len(p.Stages))
	for i := range p.Stages {
		names[i] = p.Stages[i].Program()
	}
	return names
}
