package pipeline

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// Compile splits a line on | and parses every stage. Every stage is parsed
// even after an earlier failure so that one pass reports all syntax errors;
// use multierr.Errors to list them. A blank line compiles to nil, nil.
func Compile(line string) (*Pipeline, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(line) > MaxLine {
		return nil, &SyntaxError{Msg: MsgTooLong}
	}

	parts := strings.Split(line, OpPipe)
	total := len(parts)

	var errs error
	if total > MaxStages {
		errs = multierr.Append(errs, &SyntaxError{Msg: MsgTooDeep})
	}

	p := &Pipeline{Line: line, Stages: make([]Stage, 0, total)}
	for i, part := range parts {
		st, err := ParseStage(part, i, total)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.Stages = append(p.Stages, st)
	}
	if errs != nil {
		return nil, errs
	}
	return p, nil
}

// ParseStage parses the text of one stage at position index of total.
// Redirect operators and their filenames are removed from Args.
func ParseStage(text string, index, total int) (Stage, error) {
	text = strings.TrimSpace(text)
	st := Stage{Text: text, Index: index, Total: total}
	fail := func(msg string) (Stage, error) {
		return Stage{}, &SyntaxError{Stage: text, Msg: msg}
	}

	tokens := strings.Fields(text)
	for i := 0; i < len(tokens); i++ {
		if isRedirect(tokens[i]) {
			i++ // skip the filename too
			continue
		}
		st.Args = append(st.Args, tokens[i])
	}

	var in, out int
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case OpRedirectIn:
			if !st.IsFirst() {
				return fail(MsgAmbiguousInput)
			}
			if i+1 >= len(tokens) {
				return fail(MsgNoInput)
			}
			if isRedirect(tokens[i+1]) {
				return fail(MsgBadInput)
			}
			in++
			i++
			st.RedirectIn = tokens[i]
		case OpRedirectOut:
			if !st.IsLast() {
				return fail(MsgAmbiguousOutput)
			}
			if i+1 >= len(tokens) {
				return fail(MsgNoOutput)
			}
			if isRedirect(tokens[i+1]) {
				return fail(MsgBadOutput)
			}
			out++
			i++
			st.RedirectOut = tokens[i]
		}
	}

	switch {
	case in > 1:
		return fail(MsgBadInput)
	case out > 1:
		return fail(MsgBadOutput)
	case len(st.Args) > MaxArgs:
		return fail(MsgTooManyArgs)
	case len(st.Args) == 0:
		return fail(MsgNullCommand)
	}
	return st, nil
}

func isRedirect(tok string) bool {
	return tok == OpRedirectIn || tok == OpRedirectOut
}
