package builtin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// ErrNoDirectory is returned when cd is not given exactly one argument.
var ErrNoDirectory = errors.New("no directory specified")

// Cd changes the shell's working directory.
type Cd struct{}

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string { return "cd" }

// Run checks what chdir(2) would check (existence, directory, search
// permission) and only then moves the working directory. On any error the
// directory is left as it was.
func (c *Cd) Run(st *State, args []string) error {
	if len(args) != 2 {
		return ErrNoDirectory
	}
	dir := args[1]
	target := st.Resolve(dir)

	fi, err := os.Stat(target)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return fmt.Errorf("%s: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: %w", dir, unix.ENOTDIR)
	}
	if err := unix.Access(target, unix.X_OK); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	st.setDir(target)
	return nil
}
