// Package prefs defines the two user preferences the shell keeps in sync with
// hosted documents: the display currency and the color theme.
package prefs

import "errors"

// Kind identifies a preference pipeline.
type Kind string

const (
	KindCurrency Kind = "currency"
	KindTheme    Kind = "theme"
)

// Kinds lists every supported preference kind.
var Kinds = []Kind{KindCurrency, KindTheme}

var (
	ErrUnknownKind      = errors.New("unknown preference kind")
	ErrUnknownCurrency  = errors.New("unknown currency code")
	ErrUnknownThemeMode = errors.New("unknown theme mode")
	ErrUnknownScheme    = errors.New("unknown color scheme")
)

// Value is an immutable preference value. Two values of the same kind are
// equal when their IDs are equal.
type Value interface {
	Kind() Kind
	ID() string
}

// ParseKind maps a user-supplied name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCurrency, KindTheme:
		return Kind(s), nil
	}
	return "", ErrUnknownKind
}

// Default returns the hardcoded fallback for kind.
func Default(kind Kind) Value {
	if kind == KindTheme {
		return DefaultTheme()
	}
	return DefaultCurrency()
}

// Lookup resolves id against the fixed allowed set of kind.
func Lookup(kind Kind, id string) (Value, error) {
	switch kind {
	case KindCurrency:
		c, ok := CurrencyByCode(id)
		if !ok {
			return nil, ErrUnknownCurrency
		}
		return c, nil
	case KindTheme:
		t, ok := ThemeByMode(ThemeMode(id))
		if !ok {
			return nil, ErrUnknownThemeMode
		}
		return t, nil
	}
	return nil, ErrUnknownKind
}
