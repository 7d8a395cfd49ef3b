// Package interrupt coordinates SIGINT with pipeline construction.
//
// Nothing runs inside a signal handler. Interrupts are queued on a channel
// by the runtime and observed only at points the shell chooses: when a
// spawn window is released, after a pipeline has been reaped, and before
// the next prompt. Observing them prints one newline so the prompt starts
// on a clean line. Running children are never signalled from here; they
// get the terminal's SIGINT themselves and are reaped by the normal wait.
package interrupt

import (
	"io"
	"os"
	"os/signal"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Coordinator queues interrupts and defers them across spawn windows.
type Coordinator struct {
	ch  chan os.Signal
	out io.Writer
	log *zap.Logger

	mu   sync.Mutex
	held int
}

// New creates a coordinator that writes prompt resets to out.
func New(out io.Writer, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		ch:  make(chan os.Signal, 8),
		out: out,
		log: log,
	}
}

// Listen starts capturing SIGINT. After this an interrupt no longer
// terminates the process.
func (c *Coordinator) Listen() {
	signal.Notify(c.ch, unix.SIGINT)
}

// Stop restores default SIGINT handling.
func (c *Coordinator) Stop() {
	signal.Stop(c.ch)
}

// Hold opens a spawn window. Interrupts arriving before the returned
// release is called stay queued; release observes them.
func (c *Coordinator) Hold() (release func()) {
	c.mu.Lock()
	c.held++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.held--
			c.mu.Unlock()
			c.Reset()
		})
	}
}

// Reset observes queued interrupts. If there were any it writes a newline
// and reports true. Inside a spawn window it does nothing.
func (c *Coordinator) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held > 0 {
		return false
	}

	n := 0
	for {
		select {
		case <-c.ch:
			n++
			continue
		default:
		}
		break
	}
	if n == 0 {
		return false
	}

	c.log.Debug("interrupt observed", zap.Int("count", n))
	if c.out != nil {
		io.WriteString(c.out, "\n")
	}
	return true
}
