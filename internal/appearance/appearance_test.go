package appearance

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/calqshell/internal/prefs"
)

func TestMonitorNotifiesOnlyOnChange(t *testing.T) {
	m := NewMonitor(prefs.SchemeLight)
	var got []prefs.Scheme
	cancel := m.OnChange(func(s prefs.Scheme) { got = append(got, s) })

	assert.False(t, m.Set(prefs.SchemeLight))
	assert.True(t, m.Set(prefs.SchemeDark))
	assert.False(t, m.Set(prefs.SchemeDark))
	assert.Equal(t, prefs.SchemeDark, m.Current())
	assert.Equal(t, []prefs.Scheme{prefs.SchemeDark}, got)

	cancel()
	m.Set(prefs.SchemeLight)
	assert.Len(t, got, 1)
}

func TestMonitorSubscriberMayReadCurrent(t *testing.T) {
	m := NewMonitor(prefs.SchemeLight)
	var seen prefs.Scheme
	m.OnChange(func(prefs.Scheme) { seen = m.Current() })
	m.Set(prefs.SchemeDark)
	assert.Equal(t, prefs.SchemeDark, seen)
}

func TestNewMonitorNormalizes(t *testing.T) {
	assert.Equal(t, prefs.SchemeLight, NewMonitor("").Current())
}

func TestDetect(t *testing.T) {
	assert.Equal(t, prefs.SchemeDark, Detect(" Dark\n"))
	assert.Equal(t, prefs.SchemeLight, Detect("light"))
	assert.Equal(t, prefs.SchemeLight, Detect("sepia"))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appearance")
	require.NoError(t, os.WriteFile(path, []byte("dark\n"), 0o600))
	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, prefs.SchemeDark, s)

	require.NoError(t, os.WriteFile(path, []byte("purple"), 0o600))
	_, err = ReadFile(path)
	assert.ErrorIs(t, err, prefs.ErrUnknownScheme)
}

func TestWatcherFollowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appearance")
	require.NoError(t, os.WriteFile(path, []byte("light"), 0o600))

	m := NewMonitor(prefs.SchemeLight)
	var mu sync.Mutex
	var changes []prefs.Scheme
	m.OnChange(func(s prefs.Scheme) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, s)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := NewWatcher(path, 50*time.Millisecond, func(s prefs.Scheme) { m.Set(s) }, nil)
	go func() { done <- w.Watch(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("dark"), 0o600))
	require.Eventually(t, func() bool { return m.Current() == prefs.SchemeDark }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []prefs.Scheme{prefs.SchemeDark}, changes)
}

func TestWatcherRequiresPath(t *testing.T) {
	w := NewWatcher("", time.Second, func(prefs.Scheme) {}, nil)
	assert.Error(t, w.Watch(context.Background()))
}
