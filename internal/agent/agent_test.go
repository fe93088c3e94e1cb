package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/config"
	"github.com/vesaa/calqshell/internal/prefs"
)

type sink struct {
	mu      sync.Mutex
	reports []AppearancePayload
}

func (s *sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var p AppearancePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.reports = append(s.reports, p)
	s.mu.Unlock()
}

func (s *sink) schemes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r.Scheme)
	}
	return out
}

func TestRunReportsOnStartAndChange(t *testing.T) {
	s := &sink{}
	srv := httptest.NewServer(s)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "appearance")
	require.NoError(t, os.WriteFile(path, []byte("light\n"), 0o600))

	cfg := &config.Config{
		AgentServerAddr: strings.TrimPrefix(srv.URL, "http://"),
		AgentToken:      "tok",
		AgentInterval:   1,
		Appearance:      "light",
		AppearanceFile:  path,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, nil) }()

	require.Eventually(t, func() bool { return len(s.schemes()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "light", s.schemes()[0])

	require.NoError(t, os.WriteFile(path, []byte("dark\n"), 0o600))
	require.Eventually(t, func() bool {
		got := s.schemes()
		return got[len(got)-1] == "dark"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestPostJSONRejectedToken(t *testing.T) {
	srv := httptest.NewServer(&sink{})
	defer srv.Close()

	err := postJSON(context.Background(), srv.URL, "wrong", AppearancePayload{Scheme: "dark"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCollector(t *testing.T) {
	m := appearance.NewMonitor(prefs.SchemeDark)
	snap := NewCollector(m).Collect()
	assert.Equal(t, prefs.SchemeDark, snap.Scheme)
	assert.NotEmpty(t, snap.Platform)
	assert.False(t, snap.CollectedAt.IsZero())
}
