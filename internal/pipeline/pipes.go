package pipeline

import "os"

// pipeWindow owns the inter-stage pipes of one pipeline run. Each stage
// boundary gets its own pipe, created just before its producer is spawned.
// The parent drops its copy of each end as soon as the child that uses it
// has been spawned, so at most two pairs are live at any time: old, which
// feeds the stage being spawned, and next, which that stage feeds.
type pipeWindow struct {
	oldR  *os.File
	nextR *os.File
	nextW *os.File
}

// open creates next for a stage that has a successor.
func (w *pipeWindow) open() error {
	r, wr, err := os.Pipe()
	if err != nil {
		return &ResourceError{Op: "pipe", Err: err}
	}
	w.nextR, w.nextW = r, wr
	return nil
}

// input is the read end feeding the current stage, nil for the first.
func (w *pipeWindow) input() *os.File { return w.oldR }

// output is the write end fed by the current stage, nil for the last.
func (w *pipeWindow) output() *os.File { return w.nextW }

// advance is called after the current stage has been spawned (or skipped).
// The child holds its own copies, so the parent closes the read end it
// consumed and the write end it produced into, and next becomes old.
func (w *pipeWindow) advance() error {
	err := closeFile(&w.oldR)
	if werr := closeFile(&w.nextW); err == nil {
		err = werr
	}
	w.oldR, w.nextR = w.nextR, nil
	return err
}

// close releases every descriptor still held.
func (w *pipeWindow) close() error {
	var first error
	for _, f := range []**os.File{&w.oldR, &w.nextR, &w.nextW} {
		if err := closeFile(f); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// live counts the descriptors the window still holds.
func (w *pipeWindow) live() int {
	n := 0
	for _, f := range []*os.File{w.oldR, w.nextR, w.nextW} {
		if f != nil {
			n++
		}
	}
	return n
}

func closeFile(f **os.File) error {
	if *f == nil {
		return nil
	}
	err := (*f).Close()
	*f = nil
	if err != nil {
		return &ResourceError{Op: "close", Err: err}
	}
	return nil
}
