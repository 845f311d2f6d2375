package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewTickerScheduler(10 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after Stop")
}

func TestTickerScheduler_StartTwiceIsNoop(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewTickerScheduler(time.Hour)
	job := func(time.Time) { runs.Add(1) }
	require.NoError(t, s.Start(context.Background(), job))
	require.NoError(t, s.Start(context.Background(), job))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestTickerScheduler_DefaultInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour, NewTickerScheduler(0).interval)
}
