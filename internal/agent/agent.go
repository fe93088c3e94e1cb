// Package agent implements the CalqShell appearance agent.
// It follows the device color scheme and reports it to a shell's data plane.
// Every outbound HTTP request carries: Authorization: Bearer <token>
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/config"
	"github.com/vesaa/calqshell/internal/prefs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AppearancePayload is posted to /api/device/appearance.
type AppearancePayload struct {
	Scheme   string `json:"scheme"`
	Hostname string `json:"hostname"`
	Platform string `json:"platform"`
}

// Run starts the agent main loop. It reports once at startup, again on every
// change of cfg.AppearanceFile, and every cfg.AgentInterval seconds until ctx
// is cancelled.
//
// cfg.AgentServerAddr is the data-plane address, e.g. "127.0.0.1:7071".
// cfg.AgentToken is sent in every request as "Authorization: Bearer <token>".
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("agent")

	url := fmt.Sprintf("http://%s/api/device/appearance", cfg.AgentServerAddr)
	interval := time.Duration(cfg.AgentInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	device := appearance.NewMonitor(appearance.Detect(cfg.Appearance))
	collector := NewCollector(device)

	report := func() {
		snap := collector.Collect()
		payload := AppearancePayload{
			Scheme:   string(snap.Scheme),
			Hostname: snap.Hostname,
			Platform: snap.Platform,
		}
		if err := postJSON(ctx, url, cfg.AgentToken, payload); err != nil {
			log.Warn("report failed", zap.String("url", url), zap.Error(err))
			return
		}
		log.Debug("reported", zap.String("scheme", payload.Scheme))
	}

	if cfg.AppearanceFile != "" {
		if s, err := appearance.ReadFile(cfg.AppearanceFile); err == nil {
			device.Set(s)
		}
	}
	report()
	defer device.OnChange(func(prefs.Scheme) { report() })()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.AppearanceFile != "" {
		w := appearance.NewWatcher(cfg.AppearanceFile, interval, func(s prefs.Scheme) { device.Set(s) }, log)
		g.Go(func() error { return w.Watch(ctx) })
	}

	// ── Periodic reporting loop ─────────────────────────────────────────────
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Info("reporting", zap.String("url", url), zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				report()
			}
		}
	})
	return g.Wait()
}

// postJSON sends v as JSON via HTTP POST with the Bearer token in the Authorization header.
func postJSON(ctx context.Context, url, bearerToken string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("server rejected token (401), check --token or agent_token in config")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}
