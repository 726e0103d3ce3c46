// Package appstage tracks which lifecycle stage an app is in, from Init
// through ShutDown. The game loop, tick waiters, and shutdown signals all
// race on the stage, so every method is safe for concurrent use.
package appstage

import (
	"sync"
	"sync/atomic"
)

type Stage string

const (
	Init         Stage = "Init"         // The default stage of the app
	Starting     Stage = "Starting"     // The app is moved to this stage when Startup() is called
	Ready        Stage = "Ready"        // The app is moved to this stage when it is ready to start ticking
	Running      Stage = "Running"      // The app is moved to this stage when Tick() is first called
	ShuttingDown Stage = "ShuttingDown" // The app is moved to this stage when it receives a shutdown signal
	ShutDown     Stage = "ShutDown"     // The app is moved to this stage when it has successfully shut down
)

type Manager struct {
	current *atomic.Value

	mu      sync.Mutex
	waiters map[Stage][]chan struct{}
}

func NewManager() *Manager {
	m := &Manager{
		current: &atomic.Value{},
		waiters: map[Stage][]chan struct{}{},
	}
	m.Store(Init)
	return m
}

func (m *Manager) CompareAndSwap(oldStage, newStage Stage) (swapped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	swapped = m.current.CompareAndSwap(oldStage, newStage)
	if swapped {
		m.notifyLocked(newStage)
	}
	return swapped
}

func (m *Manager) Current() Stage {
	return m.current.Load().(Stage)
}

func (m *Manager) Store(val Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Store(val)
	m.notifyLocked(val)
}

func (m *Manager) Swap(newStage Stage) (oldStage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldStage = m.current.Swap(newStage).(Stage)
	m.notifyLocked(newStage)
	return oldStage
}

// NotifyOnStage returns a channel that is closed once the manager reaches the
// given stage. If the manager is already there, the channel arrives closed.
// Stages visited before the call do not count.
func (m *Manager) NotifyOnStage(stage Stage) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.Current() == stage {
		close(ch)
		return ch
	}
	m.waiters[stage] = append(m.waiters[stage], ch)
	return ch
}

func (m *Manager) notifyLocked(stage Stage) {
	for _, ch := range m.waiters[stage] {
		close(ch)
	}
	delete(m.waiters, stage)
}
