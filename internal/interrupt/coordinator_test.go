package interrupt

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetWithoutInterrupts(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)
	require.False(t, c.Reset())
	require.Empty(t, out.String())
}

func TestResetCollapsesQueuedInterrupts(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)
	c.ch <- os.Interrupt
	c.ch <- os.Interrupt
	c.ch <- os.Interrupt

	require.True(t, c.Reset())
	require.Equal(t, "\n", out.String(), "one newline however many interrupts")

	require.False(t, c.Reset(), "queue drained")
	require.Equal(t, "\n", out.String())
}

func TestHoldDefersInterrupts(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	release := c.Hold()
	c.ch <- os.Interrupt
	require.False(t, c.Reset(), "inside a spawn window")
	require.Empty(t, out.String())

	release()
	require.Equal(t, "\n", out.String(), "release observes the deferred interrupt")

	// A second release is a no-op.
	release()
	c.ch <- os.Interrupt
	require.True(t, c.Reset())
	require.Equal(t, "\n\n", out.String())
}

func TestNestedHolds(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	outer := c.Hold()
	inner := c.Hold()
	c.ch <- os.Interrupt

	inner()
	require.Empty(t, out.String(), "still inside the outer window")
	outer()
	require.Equal(t, "\n", out.String())
}

func TestListenAndStop(t *testing.T) {
	c := New(nil, nil)
	c.Listen()
	c.Stop()
	require.False(t, c.Reset())
}
