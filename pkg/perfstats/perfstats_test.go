package perfstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	tm := Timer{}
	require.Equal(t, time.Duration(0), tm.Average())
	require.Equal(t, "none", tm.String())

	tm.AddSample(2 * time.Millisecond)
	tm.AddSample(6 * time.Millisecond)
	tm.AddSample(1 * time.Millisecond)
	require.Equal(t, int64(3), tm.Samples)
	require.Equal(t, 3*time.Millisecond, tm.Average())
	require.Equal(t, 6*time.Millisecond, tm.Max)
	require.Equal(t, "avg 3ms, max 6ms (3 samples)", tm.String())

	tm.Since(time.Now().Add(-time.Second))
	require.GreaterOrEqual(t, tm.Max, time.Second)

	tm.Reset()
	require.Equal(t, Timer{}, tm)
}
