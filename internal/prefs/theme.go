package prefs

// ThemeMode is the user's theme choice.
type ThemeMode string

const (
	ModeSystem ThemeMode = "system"
	ModeLight  ThemeMode = "light"
	ModeDark   ThemeMode = "dark"
)

// Scheme is a concrete light/dark appearance, either the device's or the
// one a theme mode resolves to.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// ParseScheme accepts "light" or "dark".
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeLight, SchemeDark:
		return Scheme(s), nil
	}
	return "", ErrUnknownScheme
}

// Theme is the persisted theme preference.
type Theme struct {
	Mode        ThemeMode `json:"mode"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

func (t Theme) Kind() Kind { return KindTheme }
func (t Theme) ID() string { return string(t.Mode) }

// Resolve maps the mode onto a concrete scheme; system follows device.
func (t Theme) Resolve(device Scheme) Scheme {
	return t.Mode.Resolve(device)
}

// Resolve maps m onto a concrete scheme; system follows device.
func (m ThemeMode) Resolve(device Scheme) Scheme {
	switch m {
	case ModeLight:
		return SchemeLight
	case ModeDark:
		return SchemeDark
	}
	if device == SchemeDark {
		return SchemeDark
	}
	return SchemeLight
}

var themes = []Theme{
	{Mode: ModeSystem, Label: "System", Description: "Follow system theme"},
	{Mode: ModeLight, Label: "Light", Description: "Always use light theme"},
	{Mode: ModeDark, Label: "Dark", Description: "Always use dark theme"},
}

// Themes returns a copy of the theme options, default first.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// DefaultTheme follows the system.
func DefaultTheme() Theme { return themes[0] }

// ThemeByMode finds the option for mode.
func ThemeByMode(mode ThemeMode) (Theme, bool) {
	for _, t := range themes {
		if t.Mode == mode {
			return t, true
		}
	}
	return Theme{}, false
}
