package script

import (
	"encoding/json"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"
)

// fakeDocument stands in for the hosted page: every side effect the injected
// scripts can have is recorded on __rec.
const fakeDocument = `
var __rec = {
  cookies: [], storage: {}, events: [], hooks: [], logs: [], errors: [],
  attrs: {}, classes: ["light-theme"], timers: [], selectorEvents: [], query: ""
};
var console = {
  log: function() { __rec.logs.push(Array.prototype.join.call(arguments, " ")); },
  error: function() { __rec.errors.push(Array.prototype.join.call(arguments, " ")); }
};
var localStorage = {
  setItem: function(k, v) { __rec.storage[k] = String(v); },
  getItem: function(k) { return Object.prototype.hasOwnProperty.call(__rec.storage, k) ? __rec.storage[k] : null; }
};
function CustomEvent(type, init) { this.type = type; this.detail = init ? init.detail : undefined; }
function Event(type, init) { this.type = type; this.bubbles = !!(init && init.bubbles); }
var __selector = {
  value: "INR",
  dispatchEvent: function(e) { __rec.selectorEvents.push(e.type + ":" + e.bubbles); }
};
var document = {
  documentElement: {
    setAttribute: function(k, v) { __rec.attrs[k] = v; },
    classList: {
      remove: function() {
        var drop = Array.prototype.slice.call(arguments);
        __rec.classes = __rec.classes.filter(function(c) { return drop.indexOf(c) < 0; });
      },
      add: function(c) { __rec.classes.push(c); }
    }
  },
  querySelectorAll: function(q) { __rec.query = q; return [__selector]; }
};
Object.defineProperty(document, "cookie", {
  set: function(v) { __rec.cookies.push(v); },
  get: function() { return __rec.cookies.join("; "); }
});
var window = {
  dispatchEvent: function(e) { __rec.events.push({ type: e.type, detail: e.detail }); }
};
function setTimeout(fn, ms) { __rec.timers.push(ms); }
`

type event struct {
	Type   string          `json:"type"`
	Detail json.RawMessage `json:"detail"`
}

type record struct {
	Cookies        []string          `json:"cookies"`
	Storage        map[string]string `json:"storage"`
	Events         []event           `json:"events"`
	Hooks          []string          `json:"hooks"`
	Logs           []string          `json:"logs"`
	Errors         []string          `json:"errors"`
	Attrs          map[string]string `json:"attrs"`
	Classes        []string          `json:"classes"`
	Timers         []int             `json:"timers"`
	SelectorEvents []string          `json:"selectorEvents"`
	SelectorValue  string            `json:"selectorValue"`
	Query          string            `json:"query"`
}

// runInPage executes setup and then code against a fresh fake document.
func runInPage(t *testing.T, setup, code string) record {
	t.Helper()
	vm := goja.New()
	_, err := vm.RunString(fakeDocument)
	require.NoError(t, err)
	if setup != "" {
		_, err = vm.RunString(setup)
		require.NoError(t, err)
	}
	_, err = vm.RunString(code)
	require.NoError(t, err, "injected script must never throw")

	out, err := vm.RunString(`__rec.selectorValue = __selector.value; JSON.stringify(__rec)`)
	require.NoError(t, err)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(out.String()), &rec))
	return rec
}
