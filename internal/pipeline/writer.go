package pipeline

import (
	"io"
	"os"
	"sync"
)

// lockedWriter serialises writes from the copy goroutines os/exec starts
// for every child whose stdout or stderr is not an *os.File.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// shareable returns w unchanged if it is a file (children get the
// descriptor directly), and a locked wrapper otherwise.
func shareable(w io.Writer, mu *sync.Mutex) io.Writer {
	if w == nil {
		return nil
	}
	if _, ok := w.(*os.File); ok {
		return w
	}
	return &lockedWriter{mu: mu, w: w}
}
