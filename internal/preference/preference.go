// Package preference orchestrates the currency and theme pipelines: it holds
// the in-memory value native UI reads, persists changes, and pushes scripts
// to every registered hosted document.
//
// The native value is the source of truth. It changes first, before any I/O,
// and is never rolled back when persistence or injection fails afterwards.
package preference

import (
	"context"

	"github.com/vesaa/calqshell/internal/bridge"
	"github.com/vesaa/calqshell/internal/prefs"
)

// Store is the persistence the contexts need.
type Store interface {
	Load(ctx context.Context, kind prefs.Kind) prefs.Value
	Save(ctx context.Context, v prefs.Value) error
}

// Injector fans scripts out to hosted documents.
type Injector interface {
	InjectIntoAll(script string) bridge.Report
	InjectIntoAllAndReload(script string) bridge.Report
}

// Scripts builds injection payloads.
type Scripts interface {
	Currency(c prefs.Currency) string
	Theme(mode prefs.ThemeMode, resolved prefs.Scheme) string
}
