package monitor_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"codeberg.org/mutker/gpufreq/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tick    = 5 * time.Millisecond
	waitFor = 2 * time.Second
)

// countingReader returns Available samples whose CurrentMHz is the call
// number, and tracks how many reads overlap.
type countingReader struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
	gate     chan struct{}
}

func (r *countingReader) Read(context.Context) gpufreq.State {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		prev := r.maxSeen.Load()
		if n <= prev || r.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}

	call := r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	time.Sleep(r.delay)
	return gpufreq.Available{Sample: gpufreq.Sample{CurrentMHz: int(call)}}
}

func (*countingReader) ClearCache() {}

func TestPublishesLatest(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())
	m.Start(context.Background(), tick)
	defer m.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, waitFor, tick)

	state, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, gpufreq.KindAvailable, state.Kind())
	assert.True(t, m.IsRunning())
}

func TestReadsNeverOverlap(t *testing.T) {
	r := &countingReader{delay: 3 * time.Millisecond}
	m := monitor.New(r, logger.Nop())
	m.Start(context.Background(), time.Millisecond)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 10 }, waitFor, tick)
	m.Stop()

	assert.EqualValues(t, 1, r.maxSeen.Load())
}

func TestStopHaltsPolling(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())
	m.Start(context.Background(), tick)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, waitFor, tick)
	m.Stop()
	assert.False(t, m.IsRunning())

	time.Sleep(2 * tick)
	settled := r.calls.Load()
	time.Sleep(10 * tick)
	assert.Equal(t, settled, r.calls.Load())
}

func TestStoppedLoopNeverPublishes(t *testing.T) {
	r := &countingReader{gate: make(chan struct{})}
	m := monitor.New(r, logger.Nop())
	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start(context.Background(), tick)
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, waitFor, time.Millisecond)

	m.Stop()
	close(r.gate)
	time.Sleep(5 * tick)

	_, ok := m.Latest()
	assert.False(t, ok)
	assert.Empty(t, updates)
}

func TestRestartStartsFreshLoop(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())

	m.Start(context.Background(), tick)
	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, waitFor, tick)

	m.Start(context.Background(), tick)
	assert.True(t, m.IsRunning())
	before := r.calls.Load()
	assert.Eventually(t, func() bool { return r.calls.Load() > before+2 }, waitFor, tick)

	m.Stop()
	time.Sleep(2 * tick)
	settled := r.calls.Load()
	time.Sleep(10 * tick)
	assert.Equal(t, settled, r.calls.Load(), "no loop survives a restart followed by stop")
}

func TestParentContextEndsLoop(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, tick)
	assert.Eventually(t, m.IsRunning, waitFor, tick)

	cancel()
	assert.Eventually(t, func() bool { return !m.IsRunning() }, waitFor, tick)
}

// interruptedReader succeeds once, then blocks until its context ends
// and reports what a cut-short catalog walk looks like.
type interruptedReader struct {
	calls atomic.Int64
}

func (r *interruptedReader) Read(ctx context.Context) gpufreq.State {
	if r.calls.Add(1) == 1 {
		return gpufreq.Available{Sample: gpufreq.Sample{CurrentMHz: 585}}
	}
	<-ctx.Done()
	return gpufreq.Error{Message: "all 1 current-frequency candidates for vendor adreno exhausted"}
}

func (*interruptedReader) ClearCache() {}

func TestParentCancelDoesNotPublishInterruptedRead(t *testing.T) {
	r := &interruptedReader{}
	m := monitor.New(r, logger.Nop())
	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, tick)
	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, waitFor, time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return !m.IsRunning() }, waitFor, tick)

	state, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, gpufreq.KindAvailable, state.Kind())

	got := <-updates
	assert.Equal(t, gpufreq.KindAvailable, got.Kind())
	assert.Empty(t, updates)
}

func TestSubscriberSeesOnlyNewest(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())
	updates, unsubscribe := m.Subscribe()

	m.Start(context.Background(), time.Millisecond)
	assert.Eventually(t, func() bool { return r.calls.Load() >= 20 }, waitFor, time.Millisecond)
	m.Stop()
	time.Sleep(5 * tick)

	assert.LessOrEqual(t, len(updates), 1)
	got := <-updates
	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, latest, got)

	unsubscribe()
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
}

func TestSubscribeReceivesCurrentState(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())
	m.Start(context.Background(), tick)
	assert.Eventually(t, func() bool { _, ok := m.Latest(); return ok }, waitFor, tick)
	m.Stop()

	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	select {
	case state := <-updates:
		assert.Equal(t, gpufreq.KindAvailable, state.Kind())
	case <-time.After(waitFor):
		t.Fatal("no initial state")
	}
}

func TestConcurrentStartStop(t *testing.T) {
	r := &countingReader{}
	m := monitor.New(r, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Start(context.Background(), time.Millisecond)
				m.Latest()
				m.Stop()
			}
		}()
	}
	wg.Wait()
	assert.False(t, m.IsRunning())
}
