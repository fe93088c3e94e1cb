package preference

import (
	"context"
	"fmt"
	"sync"

	"github.com/vesaa/calqshell/internal/appearance"
	"github.com/vesaa/calqshell/internal/prefs"
	"go.uber.org/zap"
)

// ThemeState is a consistent read of the theme pipeline.
type ThemeState struct {
	Selected prefs.Theme   `json:"selected"`
	Resolved prefs.Scheme  `json:"resolved"`
	IsDark   bool          `json:"is_dark"`
	Palette  prefs.Palette `json:"palette"`
}

// Theme is the theme pipeline. A theme in system mode follows the device
// appearance live.
type Theme struct {
	store    Store
	injector Injector
	scripts  Scripts
	device   appearance.Source
	log      *zap.Logger

	mu       sync.RWMutex
	selected prefs.Theme
	resolved prefs.Scheme
	loading  bool
}

// NewTheme returns a theme pipeline resolving against device. It starts in
// the loading state with the default theme until Initialize runs.
func NewTheme(store Store, injector Injector, scripts Scripts, device appearance.Source, log *zap.Logger) *Theme {
	if log == nil {
		log = zap.NewNop()
	}
	def := prefs.DefaultTheme()
	return &Theme{
		store:    store,
		injector: injector,
		scripts:  scripts,
		device:   device,
		log:      log.Named("theme"),
		selected: def,
		resolved: def.Resolve(device.Current()),
		loading:  true,
	}
}

// State returns the selected option and what it resolves to.
func (t *Theme) State() ThemeState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ThemeState{
		Selected: t.selected,
		Resolved: t.resolved,
		IsDark:   t.resolved == prefs.SchemeDark,
		Palette:  prefs.PaletteFor(t.resolved),
	}
}

// Selected returns the chosen theme option.
func (t *Theme) Selected() prefs.Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected
}

// Resolved returns the scheme currently applied.
func (t *Theme) Resolved() prefs.Scheme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolved
}

// IsLoading reports whether Initialize has not yet finished.
func (t *Theme) IsLoading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// Script returns the injection payload for the current state.
func (t *Theme) Script() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scripts.Theme(t.selected.Mode, t.resolved)
}

// Initialize loads the persisted theme and injects it into already
// registered documents without reloading them.
func (t *Theme) Initialize(ctx context.Context) {
	t.setLoading(true)
	defer t.setLoading(false)
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("initialize failed, using default", zap.Any("panic", r))
			t.set(prefs.DefaultTheme())
		}
	}()

	selected, ok := t.store.Load(ctx, prefs.KindTheme).(prefs.Theme)
	if !ok {
		selected = prefs.DefaultTheme()
	}
	resolved := t.set(selected)

	rep := t.injector.InjectIntoAll(t.scripts.Theme(selected.Mode, resolved))
	t.log.Info("theme initialized", zap.String("mode", string(selected.Mode)),
		zap.String("resolved", string(resolved)), zap.Int("webviews", rep.Targets))
}

// SetTheme switches to mode. Only an unknown mode is returned as an error;
// later failures are logged.
func (t *Theme) SetTheme(ctx context.Context, mode prefs.ThemeMode) (ThemeState, error) {
	next, ok := prefs.ThemeByMode(mode)
	if !ok {
		return ThemeState{}, fmt.Errorf("set theme %q: %w", mode, prefs.ErrUnknownThemeMode)
	}
	resolved := t.set(next)

	if err := t.store.Save(ctx, next); err != nil {
		t.log.Error("persisting theme failed", zap.String("mode", string(mode)), zap.Error(err))
	}

	rep := t.injector.InjectIntoAllAndReload(t.scripts.Theme(next.Mode, resolved))
	t.log.Info("theme updated", zap.String("mode", string(mode)), zap.String("resolved", string(resolved)),
		zap.Int("webviews", rep.Targets), zap.Int("failed", rep.Failed))
	return t.State(), nil
}

// Watch follows device appearance changes until the returned function is
// called.
func (t *Theme) Watch() (stop func()) {
	return t.device.OnChange(t.deviceChanged)
}

// deviceChanged re-resolves a system-mode theme and injects it without a
// reload so the hosted document can restyle in place. The notified scheme is
// ignored: notifications may arrive out of order, so the source is re-read
// under the lock.
func (t *Theme) deviceChanged(prefs.Scheme) {
	t.mu.Lock()
	if t.selected.Mode != prefs.ModeSystem {
		t.mu.Unlock()
		return
	}
	t.resolved = t.selected.Resolve(t.device.Current())
	mode, resolved := t.selected.Mode, t.resolved
	t.mu.Unlock()

	rep := t.injector.InjectIntoAll(t.scripts.Theme(mode, resolved))
	t.log.Info("device appearance changed", zap.String("resolved", string(resolved)), zap.Int("webviews", rep.Targets))
}

// set replaces the selected theme, resolving it against the device while
// holding the lock so a concurrent device change cannot be lost.
func (t *Theme) set(v prefs.Theme) prefs.Scheme {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = v
	t.resolved = v.Resolve(t.device.Current())
	return t.resolved
}

func (t *Theme) setLoading(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = v
}
