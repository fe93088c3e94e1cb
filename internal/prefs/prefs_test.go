package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "INR", Default(KindCurrency).ID())
	assert.Equal(t, "system", Default(KindTheme).ID())
}

func TestLookup(t *testing.T) {
	v, err := Lookup(KindCurrency, "JPY")
	require.NoError(t, err)
	c := v.(Currency)
	assert.Equal(t, 0, c.FractionDigits)
	assert.Equal(t, "ja-JP", c.Locale)

	_, err = Lookup(KindCurrency, "XYZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	v, err = Lookup(KindTheme, "dark")
	require.NoError(t, err)
	assert.Equal(t, ModeDark, v.(Theme).Mode)

	_, err = Lookup(KindTheme, "sepia")
	assert.ErrorIs(t, err, ErrUnknownThemeMode)

	_, err = Lookup(Kind("font"), "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCurrenciesReturnsCopy(t *testing.T) {
	list := Currencies()
	require.Len(t, list, 8)
	list[0].Code = "XXX"
	assert.Equal(t, "INR", DefaultCurrency().Code)
}

func TestResolve(t *testing.T) {
	cases := []struct {
		mode   ThemeMode
		device Scheme
		want   Scheme
	}{
		{ModeSystem, SchemeDark, SchemeDark},
		{ModeSystem, SchemeLight, SchemeLight},
		{ModeSystem, "", SchemeLight},
		{ModeLight, SchemeDark, SchemeLight},
		{ModeDark, SchemeLight, SchemeDark},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.mode.Resolve(tc.device), "%s on %s", tc.mode, tc.device)
	}
}

func TestFlagEmoji(t *testing.T) {
	assert.Equal(t, "🇯🇵", FlagEmoji("JP"))
	assert.Equal(t, "🌍", FlagEmoji("ZZ"))
}

func TestPaletteFor(t *testing.T) {
	assert.Equal(t, "#121212", PaletteFor(SchemeDark).Background)
	assert.Equal(t, "#f5f5f5", PaletteFor(SchemeLight).Background)
}
