// Package webview provides the concrete embedded browsers the bridge drives:
// hosted pages connected over a websocket, and Chrome tabs controlled over
// the DevTools protocol. Both satisfy bridge.Handle and register themselves
// for exactly as long as the underlying view is alive.
package webview
