// Package bridge keeps the set of live embedded-browser handles and fans
// scripts and reloads out to them.
//
// Fan-out is best effort and independent per handle: a failing handle is
// logged and skipped, the rest still receive the call, and no aggregate
// error is returned. Each fan-out iterates over a snapshot taken when the
// call starts, so handles registered or unregistered meanwhile never cause
// skipped or repeated deliveries.
package bridge
