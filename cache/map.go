// Package cache implements the auto-expiring concurrent map (C1): a
// keyed store with per-entry TTL, eviction enable/disable, and an
// eviction-hook callback, as described in section 4.1.
//
// The TTL sweep and eviction-notification mechanics are provided by
// github.com/patrickmn/go-cache; this package layers the tri-state
// Insert protocol and the per-entry DisableEviction/EnableEviction veto
// on top, since go-cache has no native concept of either.
package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

// InsertOutcome is the tri-state result of Insert, replacing the
// original numeric-error-code switch (section 9's "in-progress
// signaling" design note) with an explicit, type-safe enum.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
	BeingDeleted
)

// ErrEntryNotFound is returned by EnableEviction (and DisableEviction)
// when the key is absent -- including when it is mid-deletion.
var ErrEntryNotFound = errors.New("cache: entry not found")

// ErrNotRunning is returned by operations attempted before Run or after
// Stop.
var ErrNotRunning = errors.New("cache: map is not running")

// EvictionHook is invoked when the TTL sweep has removed an expired
// entry. go-cache has already deleted the entry by the time the hook
// runs, so the hook cannot veto the deletion: the argument it passes to
// decide is ignored. This system's hook always calls decide(true).
type EvictionHook[V any] func(key string, value V, decide func(bool))

type entryState struct {
	createdAt        time.Time
	evictionDisabled bool
	deleting         bool
}

// Map is the generic auto-expiring concurrent map.
type Map[V any] struct {
	lifetime time.Duration
	hook     EvictionHook[V]

	mu      sync.Mutex
	control map[string]*entryState
	inner   *gocache.Cache

	running uint32 // 0=not running, 1=running
}

// New constructs a Map with the given per-entry lifetime and eviction
// hook. lifetime must be positive.
func New[V any](lifetime time.Duration, hook EvictionHook[V]) *Map[V] {
	return &Map[V]{
		lifetime: lifetime,
		hook:     hook,
		control:  make(map[string]*entryState),
	}
}

// Init validates configuration. It does not start the TTL sweep; call
// Run for that.
func (m *Map[V]) Init() error {
	if m.lifetime <= 0 {
		return errors.New("cache: lifetime must be positive")
	}
	return nil
}

// Run starts the TTL sweep. GC is only active between Run and Stop.
func (m *Map[V]) Run() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleanupInterval := m.lifetime / 4
	if cleanupInterval <= 0 {
		cleanupInterval = time.Second
	}
	m.inner = gocache.New(m.lifetime, cleanupInterval)
	m.inner.OnEvicted(func(key string, value interface{}) {
		m.onEvicted(key, value)
	})
	atomic.StoreUint32(&m.running, 1)
	return nil
}

// Stop marks the map as not running. No eviction-hook callback fires
// once Stop has returned, and later operations report the map as not
// running. go-cache's janitor goroutine itself is not stopped.
func (m *Map[V]) Stop() error {
	atomic.StoreUint32(&m.running, 0)
	return nil
}

func (m *Map[V]) isRunning() bool { return atomic.LoadUint32(&m.running) == 1 }

func (m *Map[V]) onEvicted(key string, value interface{}) {
	if !m.isRunning() || m.hook == nil {
		return
	}
	// go-cache also reports removals made by Erase; those are not TTL
	// evictions, and Erase clears the control entry itself.
	m.mu.Lock()
	st, ok := m.control[key]
	erased := ok && st.deleting
	m.mu.Unlock()
	if erased {
		return
	}
	v, _ := value.(V)
	m.hook(key, v, func(bool) {})
	telemetry.CacheEvictionsTotal.WithLabelValues().Inc()

	m.mu.Lock()
	delete(m.control, key)
	m.mu.Unlock()
}

// Insert atomically attempts to add key/value. It never overwrites an
// existing live entry: on AlreadyExists the caller receives the value
// currently stored. On BeingDeleted, a concurrent Erase is in progress
// for this key and the caller should retry later.
func (m *Map[V]) Insert(key string, value V) (InsertOutcome, V) {
	var zero V
	if !m.isRunning() {
		return BeingDeleted, zero
	}

	m.mu.Lock()
	if st, ok := m.control[key]; ok {
		if st.deleting {
			m.mu.Unlock()
			telemetry.CacheInsertsTotal.WithLabelValues("being_deleted").Inc()
			return BeingDeleted, zero
		}
		m.mu.Unlock()
		existing, found := m.inner.Get(key)
		if !found {
			// Lost a race with the sweep between the control-map check and
			// the cache read; treat as not-present so the caller retries.
			return BeingDeleted, zero
		}
		telemetry.CacheInsertsTotal.WithLabelValues("already_exists").Inc()
		v, _ := existing.(V)
		return AlreadyExists, v
	}

	m.control[key] = &entryState{createdAt: time.Now()}
	m.mu.Unlock()

	m.inner.Set(key, value, m.lifetime)
	telemetry.CacheInsertsTotal.WithLabelValues("inserted").Inc()
	return Inserted, value
}

// Find returns the value for key without extending its lifetime (this
// map never extends on access).
func (m *Map[V]) Find(key string) (V, bool) {
	var zero V
	if !m.isRunning() {
		return zero, false
	}
	m.mu.Lock()
	st, ok := m.control[key]
	deleting := ok && st.deleting
	m.mu.Unlock()
	if !ok || deleting {
		return zero, false
	}
	value, found := m.inner.Get(key)
	if !found {
		return zero, false
	}
	v, _ := value.(V)
	return v, true
}

// Erase best-effort removes key. It is safe against a concurrent sweep:
// callers that observed the entry before Erase returns may still hold a
// local copy via Find's returned value.
func (m *Map[V]) Erase(key string) bool {
	m.mu.Lock()
	st, ok := m.control[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	st.deleting = true
	m.mu.Unlock()

	if m.inner != nil {
		m.inner.Delete(key)
	}

	m.mu.Lock()
	delete(m.control, key)
	m.mu.Unlock()
	return true
}

// DisableEviction pins the entry so the TTL sweep skips it regardless
// of elapsed time, by promoting its go-cache expiration to NoExpiration.
func (m *Map[V]) DisableEviction(key string) error {
	return m.setEvictionDisabled(key, true)
}

// EnableEviction un-pins the entry, restoring the remainder of its
// original lifetime (measured from creation, not from this call). It
// fails if the entry no longer exists.
func (m *Map[V]) EnableEviction(key string) error {
	return m.setEvictionDisabled(key, false)
}

func (m *Map[V]) setEvictionDisabled(key string, disabled bool) error {
	if !m.isRunning() {
		return ErrNotRunning
	}
	m.mu.Lock()
	st, ok := m.control[key]
	if !ok || st.deleting {
		m.mu.Unlock()
		return ErrEntryNotFound
	}
	createdAt := st.createdAt
	m.mu.Unlock()

	value, found := m.inner.Get(key)
	if !found {
		return ErrEntryNotFound
	}

	var ttl time.Duration
	if disabled {
		ttl = gocache.NoExpiration
	} else {
		ttl = m.lifetime - time.Since(createdAt)
		if ttl <= 0 {
			ttl = time.Nanosecond
		}
	}
	m.inner.Set(key, value, ttl)

	m.mu.Lock()
	if st, ok := m.control[key]; ok {
		st.evictionDisabled = disabled
	}
	m.mu.Unlock()
	return nil
}
