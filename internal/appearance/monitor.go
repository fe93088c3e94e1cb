// Package appearance tracks the device color scheme that a theme in system
// mode follows.
package appearance

import (
	"strings"
	"sync"

	"github.com/vesaa/calqshell/internal/prefs"
)

// Source reports the device scheme and its changes.
type Source interface {
	Current() prefs.Scheme
	// OnChange registers fn for scheme changes and returns a function that
	// unregisters it.
	OnChange(fn func(prefs.Scheme)) (cancel func())
}

// Monitor is an in-process Source fed by Set.
type Monitor struct {
	mu      sync.Mutex
	current prefs.Scheme
	nextID  int
	subs    map[int]func(prefs.Scheme)
}

// NewMonitor starts at initial; anything but dark is treated as light.
func NewMonitor(initial prefs.Scheme) *Monitor {
	if initial != prefs.SchemeDark {
		initial = prefs.SchemeLight
	}
	return &Monitor{current: initial, subs: make(map[int]func(prefs.Scheme))}
}

// Current returns the latest scheme.
func (m *Monitor) Current() prefs.Scheme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set records s and notifies subscribers when it differs from the current
// scheme. Subscribers run on the caller's goroutine, outside the lock.
func (m *Monitor) Set(s prefs.Scheme) bool {
	m.mu.Lock()
	if s == m.current {
		m.mu.Unlock()
		return false
	}
	m.current = s
	subs := make([]func(prefs.Scheme), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
	return true
}

// OnChange subscribes fn to scheme changes until the returned func is called.
func (m *Monitor) OnChange(fn func(prefs.Scheme)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Detect parses a configured scheme, defaulting to light.
func Detect(value string) prefs.Scheme {
	s, err := prefs.ParseScheme(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return prefs.SchemeLight
	}
	return s
}
