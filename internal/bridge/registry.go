package bridge

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultReloadDelay separates a handle's injection from its reload so the
// injected cookie and storage writes land first. It is a tunable, not a
// guarantee.
const DefaultReloadDelay = 100 * time.Millisecond

// Report counts the outcome of one fan-out.
type Report struct {
	Targets int `json:"targets"`
	Failed  int `json:"failed"`
}

type pendingReload struct {
	timer *time.Timer
}

type entry struct {
	seq     uint64
	pending map[*pendingReload]struct{}
}

// Registry is the live set of handles. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	handles map[Handle]*entry
	seq     uint64
	delay   time.Duration
	closed  bool
	log     *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithReloadDelay overrides DefaultReloadDelay. Negative values are treated
// as zero.
func WithReloadDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d < 0 {
			d = 0
		}
		r.delay = d
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry returns an empty registry with DefaultReloadDelay.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handles: make(map[Handle]*entry),
		delay:   DefaultReloadDelay,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.Named("bridge")
	return r
}

// Register adds h. Registering a present handle is a no-op. It fails with
// ErrClosed after Close and with ErrNotComparable for handles that cannot be
// set members.
func (r *Registry) Register(h Handle) error {
	if !keyable(h) {
		r.log.Warn("handle rejected", zap.String("type", fmt.Sprintf("%T", h)), zap.Error(ErrNotComparable))
		return ErrNotComparable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Warn("handle rejected", zap.String("handle", handleID(h)), zap.Error(ErrClosed))
		return ErrClosed
	}
	if _, ok := r.handles[h]; ok {
		return nil
	}
	r.seq++
	r.handles[h] = &entry{seq: r.seq, pending: make(map[*pendingReload]struct{})}
	r.log.Debug("handle registered", zap.String("handle", handleID(h)), zap.Int("live", len(r.handles)))
	return nil
}

// Unregister removes h and cancels its pending reloads. Removing an absent
// handle is a no-op.
func (r *Registry) Unregister(h Handle) {
	if !keyable(h) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.handles[h]
	if !ok {
		return
	}
	for p := range e.pending {
		p.timer.Stop()
	}
	delete(r.handles, h)
	r.log.Debug("handle unregistered", zap.String("handle", handleID(h)),
		zap.Int("cancelled_reloads", len(e.pending)), zap.Int("live", len(r.handles)))
}

// Contains reports whether h is registered.
func (r *Registry) Contains(h Handle) bool {
	if !keyable(h) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[h]
	return ok
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Handles returns the live handles in registration order.
func (r *Registry) Handles() []Handle {
	return r.snapshot()
}

// Infos describes the live handles in registration order.
func (r *Registry) Infos() []Info {
	hs := r.snapshot()
	out := make([]Info, 0, len(hs))
	for _, h := range hs {
		if d, ok := h.(Describer); ok {
			out = append(out, d.Describe())
			continue
		}
		out = append(out, Info{ID: handleID(h)})
	}
	return out
}

// InjectInto injects script into a single handle, registered or not.
func (r *Registry) InjectInto(h Handle, script string) error {
	err := call(h, "inject", func() error { return h.InjectScript(script) })
	if err != nil {
		r.log.Warn("inject failed", zap.String("handle", handleID(h)), zap.Error(err))
	}
	return err
}

// InjectIntoAll injects script into every live handle.
func (r *Registry) InjectIntoAll(script string) Report {
	hs := r.snapshot()
	rep := Report{Targets: len(hs)}
	for _, h := range hs {
		if err := r.InjectInto(h, script); err != nil {
			rep.Failed++
		}
	}
	r.logReport("inject", rep)
	return rep
}

// InjectIntoAllAndReload injects script into every live handle and, for
// each handle whose injection succeeded, schedules a reload after the
// reload delay. Reloads are independent per handle.
func (r *Registry) InjectIntoAllAndReload(script string) Report {
	hs := r.snapshot()
	rep := Report{Targets: len(hs)}
	for _, h := range hs {
		if err := r.InjectInto(h, script); err != nil {
			rep.Failed++
			continue
		}
		r.scheduleReload(h)
	}
	r.logReport("inject+reload", rep)
	return rep
}

// ReloadAll reloads every live handle immediately.
func (r *Registry) ReloadAll() Report {
	hs := r.snapshot()
	rep := Report{Targets: len(hs)}
	for _, h := range hs {
		if err := r.reload(h); err != nil {
			rep.Failed++
		}
	}
	r.logReport("reload", rep)
	return rep
}

// Close cancels every pending reload and drops all handles.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, e := range r.handles {
		for p := range e.pending {
			p.timer.Stop()
		}
		delete(r.handles, h)
	}
	r.closed = true
}

func (r *Registry) scheduleReload(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.handles[h]
	if !ok || r.closed {
		// unregistered while we were injecting
		return
	}
	p := &pendingReload{}
	e.pending[p] = struct{}{}
	p.timer = time.AfterFunc(r.delay, func() { r.fireReload(h, p) })
}

func (r *Registry) fireReload(h Handle, p *pendingReload) {
	r.mu.Lock()
	e, ok := r.handles[h]
	if ok {
		_, ok = e.pending[p]
		delete(e.pending, p)
	}
	r.mu.Unlock()
	if !ok {
		r.log.Debug("skipping reload of departed handle", zap.String("handle", handleID(h)))
		return
	}
	_ = r.reload(h)
}

func (r *Registry) reload(h Handle) error {
	err := call(h, "reload", h.Reload)
	if err != nil {
		r.log.Warn("reload failed", zap.String("handle", handleID(h)), zap.Error(err))
	}
	return err
}

func (r *Registry) snapshot() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.handles))
	for h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.handles[out[i]].seq < r.handles[out[j]].seq
	})
	return out
}

func (r *Registry) logReport(op string, rep Report) {
	if rep.Failed > 0 {
		r.log.Warn("fan-out partially applied", zap.String("op", op),
			zap.Int("targets", rep.Targets), zap.Int("failed", rep.Failed))
		return
	}
	r.log.Debug("fan-out applied", zap.String("op", op), zap.Int("targets", rep.Targets))
}
