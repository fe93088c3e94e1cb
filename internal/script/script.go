// Package script generates the JavaScript payloads injected into hosted
// documents. Every generator is pure: the same input always yields the same
// text, and nothing here touches the clock, storage or network. Time-based
// values such as cookie expiry are computed by the hosted document when the
// script runs.
package script

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/vesaa/calqshell/internal/prefs"
)

// DefaultCookieDomain is the production domain the currency cookie is scoped to.
const DefaultCookieDomain = ".calqulation.com"

// CookieMaxAge is the lifetime of the currency cookie.
const CookieMaxAge = 10 * 365 * 24 * time.Hour

// Generator builds scripts for one hosted site.
type Generator struct {
	// CookieDomain scopes the first of the two currency cookies. Empty writes
	// only the unscoped cookie.
	CookieDomain string
}

// New returns a Generator for cookieDomain.
func New(cookieDomain string) Generator {
	return Generator{CookieDomain: cookieDomain}
}

// Build produces the script for v. device is the current device appearance
// and only matters for a theme in system mode.
func (g Generator) Build(v prefs.Value, device prefs.Scheme) (string, error) {
	switch pv := v.(type) {
	case prefs.Currency:
		return g.Currency(pv), nil
	case prefs.Theme:
		return g.Theme(pv.Mode, pv.Resolve(device)), nil
	}
	return "", fmt.Errorf("build script: %w", prefs.ErrUnknownKind)
}

// Currency writes the currency cookie and local storage entry, notifies the
// page and nudges any currency selectors it finds.
func (g Generator) Currency(c prefs.Currency) string {
	data, _ := json.Marshal(c)
	return render(currencyTmpl, map[string]string{
		"Data":   string(data),
		"Domain": literalOrEmpty(g.CookieDomain),
		"MaxAge": fmt.Sprintf("%d", int64(CookieMaxAge/time.Second)),
	})
}

// Theme writes the theme keys to local storage, notifies the page and tags
// the root element with the resolved scheme.
func (g Generator) Theme(mode prefs.ThemeMode, resolved prefs.Scheme) string {
	return render(themeTmpl, map[string]string{
		"Mode":     literal(string(mode)),
		"Resolved": literal(string(resolved)),
	})
}

// CookieOptions shape a generic cookie write.
type CookieOptions struct {
	Path   string
	Domain string
	MaxAge time.Duration
}

// SetCookie returns a script that sets a single cookie.
func SetCookie(name, value string, opts CookieOptions) string {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 365 * 24 * time.Hour
	}
	return render(setCookieTmpl, map[string]string{
		"Name":   literal(name),
		"Value":  literal(value),
		"Path":   literal(opts.Path),
		"Domain": literalOrEmpty(opts.Domain),
		"MaxAge": fmt.Sprintf("%d", int64(opts.MaxAge/time.Second)),
	})
}

// ClearCookie returns a script that expires a cookie.
func ClearCookie(name string, opts CookieOptions) string {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return render(clearCookieTmpl, map[string]string{
		"Name":   literal(name),
		"Path":   literal(opts.Path),
		"Domain": literalOrEmpty(opts.Domain),
	})
}

// ReadTheme returns an expression evaluating to {theme, resolvedTheme} as
// stored by the hosted document, with system/light fallbacks.
func ReadTheme() string {
	return readThemeScript
}

// literal encodes s as a JavaScript string literal. encoding/json escapes
// U+2028, U+2029 and HTML-sensitive characters, so the result is safe inside
// a script body.
func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func literalOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return literal(s)
}

func render(t *template.Template, data map[string]string) string {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		panic("script: template " + t.Name() + ": " + err.Error())
	}
	return sb.String()
}
