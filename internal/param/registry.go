package param

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	ErrUnknownParam   = errors.New("param: unknown parameter")
	ErrDuplicateParam = errors.New("param: duplicate parameter")
)

// Store is the capability the synth engine depends on. Value never fails:
// a missing key yields fallback.
type Store interface {
	Value(key Key, fallback float64) float64
	SetValue(key Key, v float64) error
}

// Registry is the default Store. Registration takes a lock and republishes an
// immutable index; reads go through that index without locking.
type Registry struct {
	mu    sync.Mutex
	order []*Param
	index atomic.Pointer[map[Key]*Param]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[Key]*Param{}
	r.index.Store(&empty)
	return r
}

// Register adds specs in order. Registering a key twice is an error; specs
// before the duplicate are kept.
func (r *Registry) Register(specs ...Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.index.Load()
	next := make(map[Key]*Param, len(cur)+len(specs))
	for k, p := range cur {
		next[k] = p
	}
	var err error
	for _, s := range specs {
		if _, dup := next[s.Key]; dup {
			err = fmt.Errorf("%w: %s", ErrDuplicateParam, s.Key)
			break
		}
		p := newParam(s)
		next[s.Key] = p
		r.order = append(r.order, p)
	}
	r.index.Store(&next)
	return err
}

func (r *Registry) Lookup(key Key) (*Param, bool) {
	p, ok := (*r.index.Load())[key]
	return p, ok
}

func (r *Registry) Value(key Key, fallback float64) float64 {
	if p, ok := r.Lookup(key); ok {
		return p.Value()
	}
	return fallback
}

func (r *Registry) SetValue(key Key, v float64) error {
	p, ok := r.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, key)
	}
	p.Set(v)
	return nil
}

// All returns parameters in registration order.
func (r *Registry) All() []*Param {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Param, len(r.order))
	copy(out, r.order)
	return out
}

// Modules returns module names in first-registration order.
func (r *Registry) Modules() []string {
	seen := map[string]bool{}
	var mods []string
	for _, p := range r.All() {
		if !seen[p.Key.Module] {
			seen[p.Key.Module] = true
			mods = append(mods, p.Key.Module)
		}
	}
	return mods
}

// ResetAll restores every parameter to its default.
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
}

// Snapshot returns "Module/Name" -> value for every persistable parameter.
func (r *Registry) Snapshot() map[string]float64 {
	out := map[string]float64{}
	for _, p := range r.All() {
		if p.UIOnly {
			continue
		}
		out[p.Key.String()] = p.Value()
	}
	return out
}

// Apply writes values produced by Snapshot. Unknown and UI-only keys are
// skipped and reported together; known keys are still applied.
func (r *Registry) Apply(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		key, err := ParseKey(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p, ok := r.Lookup(key)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownParam, name))
			continue
		}
		if p.UIOnly {
			continue
		}
		p.Set(values[name])
	}
	return errors.Join(errs...)
}
