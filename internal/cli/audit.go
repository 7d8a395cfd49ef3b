package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/marcelocantos/mush/internal/audit"
)

// tailEntries is how many entries --audit tail prints.
const tailEntries = 20

// RunAudit handles mush --audit <verify|tail>.
func RunAudit(w io.Writer, fs afero.Fs, logPath, op string) int {
	if logPath == "" {
		fmt.Fprintln(w, "mush audit: no audit.path configured")
		return 1
	}

	switch op {
	case "verify":
		if err := audit.Verify(fs, logPath); err != nil {
			fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
			return 1
		}
		fmt.Fprintln(w, "audit log integrity verified")
		return 0

	case "tail":
		entries, err := audit.Tail(fs, logPath, tailEntries)
		if err != nil {
			fmt.Fprintf(w, "mush audit: %v\n", err)
			return 1
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "no audit entries")
			return 0
		}
		for _, e := range entries {
			data, _ := json.MarshalIndent(e, "", "  ")
			fmt.Fprintf(w, "%s\n", data)
		}
		return 0

	default:
		fmt.Fprintf(w, "mush audit: unknown operation %q (want verify or tail)\n", op)
		return 1
	}
}
