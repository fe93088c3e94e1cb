// Package store persists the selected preference of each kind under a fixed
// key and reads it back at startup, falling back to the kind's default.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vesaa/calqshell/internal/prefs"
	"go.uber.org/zap"
)

// Storage keys, one per preference kind.
const (
	CurrencyKey = "calqulation_selected_currency"
	ThemeKey    = "@theme_preference"
)

// KeyFor returns the storage key of kind.
func KeyFor(kind prefs.Kind) string {
	if kind == prefs.KindTheme {
		return ThemeKey
	}
	return CurrencyKey
}

// PersistenceError reports a failed read, write or delete.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is the preference store.
type Store struct {
	backend Backend
	log     *zap.Logger
}

// New returns a Store over backend. A nil log discards output.
func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log.Named("store")}
}

// Load returns the persisted value of kind. A missing key, a read error, an
// undecodable entry or a value outside the allowed set all yield the default.
func (s *Store) Load(ctx context.Context, kind prefs.Kind) prefs.Value {
	key := KeyFor(kind)
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn("load failed, using default", zap.String("key", key),
			zap.Error(&PersistenceError{Op: "get", Key: key, Err: err}))
		return prefs.Default(kind)
	}
	if !ok {
		return prefs.Default(kind)
	}

	id, err := decodeID(kind, raw)
	if err != nil {
		s.log.Warn("stored preference undecodable, using default", zap.String("key", key), zap.Error(err))
		return prefs.Default(kind)
	}
	v, err := prefs.Lookup(kind, id)
	if err != nil {
		s.log.Warn("stored preference not allowed, using default", zap.String("key", key), zap.String("id", id))
		return prefs.Default(kind)
	}
	return v
}

// Currency is Load for the currency kind.
func (s *Store) Currency(ctx context.Context) prefs.Currency {
	if c, ok := s.Load(ctx, prefs.KindCurrency).(prefs.Currency); ok {
		return c
	}
	return prefs.DefaultCurrency()
}

// Theme is Load for the theme kind.
func (s *Store) Theme(ctx context.Context) prefs.Theme {
	if t, ok := s.Load(ctx, prefs.KindTheme).(prefs.Theme); ok {
		return t
	}
	return prefs.DefaultTheme()
}

// Save serializes v under its kind's key. A failure is logged here and
// returned; callers may ignore it without losing the report.
func (s *Store) Save(ctx context.Context, v prefs.Value) error {
	key := KeyFor(v.Kind())
	b, err := json.Marshal(v)
	if err != nil {
		return s.failed(&PersistenceError{Op: "encode", Key: key, Err: err})
	}
	if err := s.backend.Put(ctx, key, string(b)); err != nil {
		return s.failed(&PersistenceError{Op: "put", Key: key, Err: err})
	}
	s.log.Debug("preference stored", zap.String("key", key), zap.String("id", v.ID()))
	return nil
}

// Clear removes the persisted entry of kind.
func (s *Store) Clear(ctx context.Context, kind prefs.Kind) error {
	key := KeyFor(kind)
	if err := s.backend.Delete(ctx, key); err != nil {
		return s.failed(&PersistenceError{Op: "delete", Key: key, Err: err})
	}
	s.log.Debug("preference cleared", zap.String("key", key))
	return nil
}

func (s *Store) failed(e *PersistenceError) error {
	s.log.Warn("preference not persisted", zap.String("op", e.Op), zap.String("key", e.Key), zap.Error(e.Err))
	return e
}

// decodeID extracts the identifying field of a stored entry.
func decodeID(kind prefs.Kind, raw string) (string, error) {
	switch kind {
	case prefs.KindCurrency:
		var c prefs.Currency
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return "", err
		}
		return c.Code, nil
	case prefs.KindTheme:
		var t prefs.Theme
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return "", err
		}
		return string(t.Mode), nil
	}
	return "", prefs.ErrUnknownKind
}
