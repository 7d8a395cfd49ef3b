package pipeline

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeWindowNeverHoldsMoreThanTwoPairs(t *testing.T) {
	var w pipeWindow
	for i := 0; i < MaxStages; i++ {
		last := i == MaxStages-1
		if !last {
			require.NoError(t, w.open())
		}
		if i == 0 {
			require.Nil(t, w.input(), "first stage has no pipe input")
		} else {
			require.NotNil(t, w.input(), "stage %d has no pipe input", i)
		}
		if last {
			require.Nil(t, w.output(), "last stage has no pipe output")
		} else {
			require.NotNil(t, w.output(), "stage %d has no pipe output", i)
		}
		// old's read end plus both ends of next.
		require.LessOrEqual(t, w.live(), 3)
		require.NoError(t, w.advance())
	}
	require.Zero(t, w.live(), "all descriptors released after the last stage")
	require.NoError(t, w.close())
}

func TestPipeWindowCarriesData(t *testing.T) {
	var w pipeWindow
	require.NoError(t, w.open())
	out := w.output()
	_, err := out.Write([]byte("hello"))
	require.NoError(t, err)

	// Dropping the write end leaves buffered data readable from old.
	require.NoError(t, w.advance())

	buf := make([]byte, 5)
	_, err = io.ReadFull(w.input(), buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	require.NoError(t, w.close())
	require.Zero(t, w.live())
}

func TestPipeWindowCloseIsIdempotent(t *testing.T) {
	var w pipeWindow
	require.NoError(t, w.open())
	require.NoError(t, w.close())
	require.NoError(t, w.close())
}
