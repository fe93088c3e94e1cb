package script

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/calqshell/internal/prefs"
)

func usd(t *testing.T) prefs.Currency {
	t.Helper()
	c, ok := prefs.CurrencyByCode("USD")
	require.True(t, ok)
	return c
}

func cookieCurrency(t *testing.T, cookie string) prefs.Currency {
	t.Helper()
	raw, _, ok := strings.Cut(strings.TrimPrefix(cookie, "currency="), ";")
	require.True(t, ok)
	decoded, err := url.PathUnescape(raw)
	require.NoError(t, err)
	var c prefs.Currency
	require.NoError(t, json.Unmarshal([]byte(decoded), &c))
	return c
}

func TestBuildIsPure(t *testing.T) {
	g := New(DefaultCookieDomain)
	for _, c := range prefs.Currencies() {
		a, err := g.Build(c, prefs.SchemeLight)
		require.NoError(t, err)
		b, err := g.Build(c, prefs.SchemeLight)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
	for _, th := range prefs.Themes() {
		a, _ := g.Build(th, prefs.SchemeDark)
		b, _ := g.Build(th, prefs.SchemeDark)
		assert.Equal(t, a, b)
	}
}

func TestCurrencyPayloadCarriesSerializedValue(t *testing.T) {
	code := New(DefaultCookieDomain).Currency(usd(t))
	assert.Contains(t, code, `"currency":"USD"`)
}

func TestCurrencyScriptInPage(t *testing.T) {
	c := usd(t)
	rec := runInPage(t, "", New(DefaultCookieDomain).Currency(c))

	require.Len(t, rec.Cookies, 2)
	assert.Contains(t, rec.Cookies[0], "; domain=.calqulation.com")
	assert.NotContains(t, rec.Cookies[1], "domain=")
	for _, cookie := range rec.Cookies {
		assert.True(t, strings.HasPrefix(cookie, "currency="))
		assert.Contains(t, cookie, "; path=/")
		assert.Contains(t, cookie, "; expires=")
		assert.Equal(t, c, cookieCurrency(t, cookie))
	}

	var stored prefs.Currency
	require.NoError(t, json.Unmarshal([]byte(rec.Storage["currency"]), &stored))
	assert.Equal(t, c, stored)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, "currencyChanged", rec.Events[0].Type)
	var detail struct {
		Currency prefs.Currency `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rec.Events[0].Detail, &detail))
	assert.Equal(t, c, detail.Currency)

	assert.Contains(t, rec.Query, `select[name*="currency"]`)
	assert.Equal(t, "USD", rec.SelectorValue)
	assert.Equal(t, []string{"change:true"}, rec.SelectorEvents)
	assert.Equal(t, []int{100}, rec.Timers)
	assert.Empty(t, rec.Errors)
}

func TestCurrencyScriptWithoutDomain(t *testing.T) {
	rec := runInPage(t, "", New("").Currency(usd(t)))
	require.Len(t, rec.Cookies, 1)
	assert.NotContains(t, rec.Cookies[0], "domain=")
}

func TestCurrencyHooksAreIsolated(t *testing.T) {
	setup := `
window.changeCurrency = function(d) { __rec.hooks.push("change:" + d.currency); };
window.updateCurrency = function() { throw new Error("boom"); };
window.setCurrency = function(d) { __rec.hooks.push("set:" + d.symbol); };
`
	rec := runInPage(t, setup, New(DefaultCookieDomain).Currency(usd(t)))
	assert.Equal(t, []string{"change:USD", "set:$"}, rec.Hooks)
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0], "updateCurrency")
}

func TestCurrencyScriptSwallowsPageErrors(t *testing.T) {
	setup := `localStorage.setItem = function() { throw new Error("quota exceeded"); };`
	rec := runInPage(t, setup, New(DefaultCookieDomain).Currency(usd(t)))
	require.NotEmpty(t, rec.Errors)
	assert.Contains(t, rec.Errors[0], "Error setting currency cookie")
	assert.Empty(t, rec.Events)
}

func TestThemeScriptInPage(t *testing.T) {
	rec := runInPage(t, `window.applyTheme = function(s) { __rec.hooks.push(s); };`,
		New("").Theme(prefs.ModeSystem, prefs.SchemeDark))

	assert.Equal(t, "system", rec.Storage["theme"])
	assert.Equal(t, "dark", rec.Storage["resolvedTheme"])
	require.Len(t, rec.Events, 1)
	assert.Equal(t, "themeChanged", rec.Events[0].Type)
	assert.JSONEq(t, `{"mode":"system","resolvedTheme":"dark"}`, string(rec.Events[0].Detail))
	assert.Equal(t, []string{"dark"}, rec.Hooks)
	assert.Equal(t, "dark", rec.Attrs["data-theme"])
	assert.Equal(t, []string{"dark-theme"}, rec.Classes)
	assert.Empty(t, rec.Errors)
}

func TestBuildResolvesSystemTheme(t *testing.T) {
	g := New("")
	dark, err := g.Build(prefs.DefaultTheme(), prefs.SchemeDark)
	require.NoError(t, err)
	assert.Equal(t, g.Theme(prefs.ModeSystem, prefs.SchemeDark), dark)

	light, _ := prefs.ThemeByMode(prefs.ModeLight)
	got, err := g.Build(light, prefs.SchemeDark)
	require.NoError(t, err)
	assert.Equal(t, g.Theme(prefs.ModeLight, prefs.SchemeLight), got)
}

func TestThemeScriptSwallowsPageErrors(t *testing.T) {
	setup := `window.dispatchEvent = function() { throw new Error("detached"); };`
	rec := runInPage(t, setup, New("").Theme(prefs.ModeLight, prefs.SchemeLight))
	require.NotEmpty(t, rec.Errors)
	assert.Equal(t, "light", rec.Storage["theme"])
}

func TestCookieHelpers(t *testing.T) {
	rec := runInPage(t, "", SetCookie("lang", "en IN", CookieOptions{Domain: ".example.com"}))
	require.Len(t, rec.Cookies, 1)
	assert.True(t, strings.HasPrefix(rec.Cookies[0], "lang=en%20IN; path=/; expires="))
	assert.True(t, strings.HasSuffix(rec.Cookies[0], "; domain=.example.com"))

	rec = runInPage(t, "", ClearCookie("lang", CookieOptions{}))
	assert.Equal(t, []string{"lang=; path=/; expires=Thu, 01 Jan 1970 00:00:00 GMT"}, rec.Cookies)
}

func TestReadTheme(t *testing.T) {
	vm := goja.New()
	_, err := vm.RunString(fakeDocument)
	require.NoError(t, err)

	v, err := vm.RunString(ReadTheme())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "system", "resolvedTheme": "light"}, v.Export())

	_, err = vm.RunString(New("").Theme(prefs.ModeDark, prefs.SchemeDark))
	require.NoError(t, err)
	v, err = vm.RunString(ReadTheme())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark", "resolvedTheme": "dark"}, v.Export())
}

func TestLiteralEscapesLineSeparators(t *testing.T) {
	assert.Equal(t, `"a\u2028b"`, literal("a\u2028b"))
	assert.Equal(t, `"\u003c/script\u003e"`, literal("</script>"))
}
