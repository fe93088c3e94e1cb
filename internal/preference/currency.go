package preference

import (
	"context"
	"fmt"
	"sync"

	"github.com/vesaa/calqshell/internal/prefs"
	"go.uber.org/zap"
)

// Currency is the currency pipeline.
type Currency struct {
	store    Store
	injector Injector
	scripts  Scripts
	log      *zap.Logger

	mu       sync.RWMutex
	selected prefs.Currency
	loading  bool
}

// NewCurrency returns a currency pipeline. It starts in the loading state
// with the default currency until Initialize runs.
func NewCurrency(store Store, injector Injector, scripts Scripts, log *zap.Logger) *Currency {
	if log == nil {
		log = zap.NewNop()
	}
	return &Currency{
		store:    store,
		injector: injector,
		scripts:  scripts,
		log:      log.Named("currency"),
		selected: prefs.DefaultCurrency(),
		loading:  true,
	}
}

// Selected returns the current currency.
func (c *Currency) Selected() prefs.Currency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// IsLoading reports whether Initialize has not yet finished.
func (c *Currency) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Script returns the injection payload for the current currency.
func (c *Currency) Script() string {
	return c.scripts.Currency(c.Selected())
}

// Initialize loads the persisted currency and injects it into already
// registered documents without reloading them.
func (c *Currency) Initialize(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("initialize failed, using default", zap.Any("panic", r))
			c.set(prefs.DefaultCurrency())
		}
	}()

	selected, ok := c.store.Load(ctx, prefs.KindCurrency).(prefs.Currency)
	if !ok {
		selected = prefs.DefaultCurrency()
	}
	c.set(selected)

	rep := c.injector.InjectIntoAll(c.scripts.Currency(selected))
	c.log.Info("currency initialized", zap.String("currency", selected.Code), zap.Int("webviews", rep.Targets))
}

// SetCurrency switches to the catalog currency with code. Only an unknown
// code is returned as an error; later failures are logged.
func (c *Currency) SetCurrency(ctx context.Context, code string) (prefs.Currency, error) {
	next, ok := prefs.CurrencyByCode(code)
	if !ok {
		return prefs.Currency{}, fmt.Errorf("set currency %q: %w", code, prefs.ErrUnknownCurrency)
	}
	c.set(next)

	if err := c.store.Save(ctx, next); err != nil {
		c.log.Error("persisting currency failed", zap.String("currency", next.Code), zap.Error(err))
	}

	rep := c.injector.InjectIntoAllAndReload(c.scripts.Currency(next))
	c.log.Info("currency updated", zap.String("currency", next.Code),
		zap.Int("webviews", rep.Targets), zap.Int("failed", rep.Failed))
	return next, nil
}

func (c *Currency) set(v prefs.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = v
}

func (c *Currency) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = v
}
