package flags

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Registry is the authoritative in-memory view of flag state.
//
// There is a single logical writer (the admin service, or a flagsync
// subscriber relaying another instance's admin action) and many concurrent
// readers. Every read observes a single consistent snapshot of a flag plus
// the version it was written under, never a torn value. The global version
// counter increases on every mutation and is what decision caches key their
// freshness on.
type Registry struct {
	mu      sync.RWMutex
	flags   map[string]Flag
	version atomic.Uint64
}

// NewRegistry creates an empty registry at version zero.
func NewRegistry() *Registry {
	return &Registry{flags: make(map[string]Flag)}
}

// CurrentVersion returns the monotonic global version counter.
func (r *Registry) CurrentVersion() uint64 {
	return r.version.Load()
}

// IsEnabled reports whether the named flag is enabled for the given context.
// An unknown flag is defined as not enabled: an absent flag can never be
// verified "on".
func (r *Registry) IsEnabled(name string, ec EvalContext) bool {
	r.mu.RLock()
	f, ok := r.flags[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	switch f.Kind {
	case KindBoolean:
		return f.Enabled
	case KindPercentage:
		if !f.Enabled {
			return false
		}
		if f.Rollout >= 100 {
			return true
		}
		if f.Rollout <= 0 || ec.Subject == "" {
			return false
		}
		return bucket(f.Name, ec.Subject) < f.Rollout
	case KindSegment:
		if !f.Enabled || ec.Segment == "" {
			return false
		}
		for _, s := range f.Segments {
			if s == ec.Segment {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Get returns a copy of the named flag.
func (r *Registry) Get(name string) (Flag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flags[name]
	return f, ok
}

// All returns a copy of every flag in the registry.
func (r *Registry) All() map[string]Flag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Flag, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// Apply upserts a flag and bumps the global version. The stored flag's
// Version records the counter value of this mutation.
func (r *Registry) Apply(f Flag) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.version.Add(1)
	f.Version = v
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now()
	}
	r.flags[f.Name] = f
	return v
}

// Remove deletes a flag and bumps the global version. Removing an absent
// flag is a no-op and does not bump.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flags[name]; !ok {
		return
	}
	delete(r.flags, name)
	r.version.Add(1)
}

// Load replaces the full flag set in one mutation, bumping the version once.
// Used at startup to seed the registry from the repository.
func (r *Registry) Load(all []Flag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.version.Add(1)
	next := make(map[string]Flag, len(all))
	for _, f := range all {
		f.Version = v
		next[f.Name] = f
	}
	r.flags = next
}

// bucket maps (flag, subject) onto [0, 100) with a stable hash so a subject
// stays in or out of a rollout across evaluations.
func bucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % 100)
}
