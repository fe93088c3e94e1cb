package bridge

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrClosed        = errors.New("bridge: registry closed")
	ErrNotComparable = errors.New("bridge: handle type is not comparable")
)

// Handle is the capability surface of one hosted document. Implementations
// must be comparable (pointer types in practice) because the registry keys
// its set by handle identity; Register rejects the others.
type Handle interface {
	InjectScript(code string) error
	Reload() error
}

// Identified is implemented by handles that carry a stable ID for logs and
// listings.
type Identified interface {
	ID() string
}

// Describer is implemented by handles that can report what they show.
type Describer interface {
	Describe() Info
}

// Info summarizes a registered handle.
type Info struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
}

// InjectionError reports a handle that failed an inject or reload.
type InjectionError struct {
	Handle string
	Op     string
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Handle, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }

func handleID(h Handle) string {
	if id, ok := h.(Identified); ok {
		return id.ID()
	}
	return fmt.Sprintf("%T@%p", h, h)
}

// call runs op against h, converting a panic into an error.
func call(h Handle, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InjectionError{Handle: handleID(h), Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e := fn(); e != nil {
		return &InjectionError{Handle: handleID(h), Op: op, Err: e}
	}
	return nil
}

// keyable reports whether h can be used as a map key without panicking.
func keyable(h Handle) bool {
	if h == nil {
		return false
	}
	return reflect.TypeOf(h).Comparable()
}
