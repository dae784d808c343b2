// Package monitor polls the frequency reader on an interval and fans the
// latest state out to subscribers.
package monitor

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"codeberg.org/mutker/gpufreq/internal/logger"
)

const DefaultInterval = 500 * time.Millisecond

// Monitor runs at most one poll loop. Reads never overlap: each read and
// the delay after it finish before the next read starts. Subscribers only
// ever see the most recent state.
type Monitor struct {
	reader gpufreq.FrequencyReader
	log    logger.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	latest     gpufreq.State
	subs       map[uint64]chan gpufreq.State
	nextSub    uint64
}

func New(reader gpufreq.FrequencyReader, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		reader: reader,
		log:    log,
		subs:   make(map[uint64]chan gpufreq.State),
	}
}

// Start begins polling every interval until Stop is called or ctx ends.
// A running loop is cancelled first. A non-positive interval means
// DefaultInterval.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(loopCtx, m.generation, interval, m.done)
	m.log.Debug().Dur("interval", interval).Msg("Monitor started")
}

// Stop cancels the loop. An in-flight read may still finish, but its
// result is discarded and no further read starts.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	m.generation++
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	m.log.Debug().Msg("Monitor stopped")
}

// IsRunning reports whether a loop is live and not stopped.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Latest returns the most recently published state.
func (m *Monitor) Latest() (gpufreq.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.latest != nil
}

// Subscribe returns a channel that always holds at most the newest
// state, starting with the current one if any. The returned function
// unsubscribes and closes the channel.
func (m *Monitor) Subscribe() (<-chan gpufreq.State, func()) {
	ch := make(chan gpufreq.State, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	if m.latest != nil {
		ch <- m.latest
	}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Monitor) run(ctx context.Context, generation uint64, interval time.Duration, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		state := m.reader.Read(ctx)
		if ctx.Err() != nil {
			return
		}
		if !m.publish(generation, state) {
			return
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// publish stores state unless the loop that produced it has been
// superseded.
func (m *Monitor) publish(generation uint64, state gpufreq.State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return false
	}

	if prev := m.latest; prev == nil || prev.Kind() != state.Kind() {
		m.log.Info().Str("state", state.Kind()).Msg("GPU frequency state changed")
	}
	m.latest = state

	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
	return true
}
