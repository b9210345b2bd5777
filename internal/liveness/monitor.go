// Package liveness tracks whether the backend is reachable. While it is
// unreachable the monitor re-probes on a fixed interval; once it is back the
// polling stops until Resume asks for a fresh probe.
package liveness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/logger"
)

// OfflineMessage is shown when provider-dependent actions are refused.
const OfflineMessage = "Backend is offline. Please check server status or contact support."

// Prober checks backend health. backend.Client satisfies it.
type Prober interface {
	Health(ctx context.Context) (*backend.Health, error)
}

// Monitor is the reachability gate. The zero state is online, so actions
// are allowed until the first probe says otherwise.
type Monitor struct {
	prober   Prober
	timeout  time.Duration
	interval time.Duration
	log      *logger.Logger

	mu        sync.RWMutex
	online    bool
	reason    string
	listeners []func(online bool)

	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a Monitor. Non-positive durations fall back to 5s and 15s.
func New(p Prober, timeout, interval time.Duration, log *logger.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		prober:   p,
		timeout:  timeout,
		interval: interval,
		log:      log,
		online:   true,
		wake:     make(chan struct{}, 1),
	}
}

// Start probes immediately and keeps monitoring in the background until
// Stop is called or ctx ends. Calling Start while running is a no-op; after
// Stop the monitor can be started again.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go m.run(ctx, done)
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		online := m.Check(ctx)

		// Online: suspended until Resume. Offline: also re-probe on a timer.
		var (
			timer *time.Timer
			retry <-chan time.Time
		)
		if !online {
			timer = time.NewTimer(m.interval)
			retry = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-m.wake:
		case <-retry:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Resume requests a fresh probe, e.g. when the terminal regains focus.
func (m *Monitor) Resume() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Check probes once, synchronously, and updates the state.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.prober.Health(ctx)
	online := err == nil

	reason := ""
	if !online {
		reason = OfflineMessage
		var incompatible *backend.ErrIncompatible
		if errors.As(err, &incompatible) {
			reason = incompatible.Error()
		}
	}

	m.set(online, reason, err)
	return online
}

func (m *Monitor) set(online bool, reason string, err error) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.reason = reason
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if !changed {
		return
	}
	if online {
		m.log.Info("backend reachable")
	} else {
		m.log.Warn("backend unreachable", "error", err)
	}
	for _, fn := range listeners {
		fn(online)
	}
}

// Online reports the last known reachability.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Reason is the user-facing message while offline, "" when online.
func (m *Monitor) Reason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// OnChange registers fn to be called after every online/offline
// transition. fn runs on the monitor's goroutine and must not block.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Stop ends background monitoring and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done, m.started = nil, nil, false
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
