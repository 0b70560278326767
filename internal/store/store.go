// Package store implements the shared entity store: a keyed in-memory
// map with optimistic per-key transactions. Every authoritative mutation
// in the game goes through Transact.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrAborted is returned from a transaction fn to abandon the
	// transaction without writing. Transact passes it through.
	ErrAborted = errors.New("store: transaction aborted")

	// ErrContention is returned when a transaction lost the commit race
	// more times than the retry cap allows.
	ErrContention = errors.New("store: too many conflicting writers")
)

// DefaultMaxRetries bounds the commit-retry loop. Contention on a single
// key resolves in one or two rounds in practice; hitting the cap means
// a livelocked writer, which the caller reports as transaction_failed.
const DefaultMaxRetries = 25

// Fn is a transaction body. cur is the current committed value, or nil
// if the key is absent. It returns the next value (nil deletes the key)
// or an error (ErrAborted to abandon).
//
// Fn MUST be a pure function of cur: it may run more than once per
// Transact call, so it must not perform I/O or mutate shared state, and
// it must not mutate cur — clone first, then change the clone.
type Fn func(cur any) (next any, err error)

// CreateHook is called after a commit that created a key (no previous
// value, non-nil next). Hooks run outside the store lock and may be
// invoked more than once for the same logical creation; they must be
// idempotent.
type CreateHook func(key string, value any)

type row struct {
	value   any
	version uint64
}

type hook struct {
	prefix string
	fn     CreateHook
}

// Store is the shared transactional entity store.
type Store struct {
	mu         sync.Mutex
	rows       map[string]*row
	versions   map[string]uint64 // survives deletion: a deleted key's version keeps advancing
	hooks      []hook
	maxRetries int
}

func New() *Store {
	return &Store{
		rows:       make(map[string]*row),
		versions:   make(map[string]uint64),
		maxRetries: DefaultMaxRetries,
	}
}

// SetMaxRetries overrides the commit-retry cap. Used by tests to force
// the contention path deterministically.
func (s *Store) SetMaxRetries(n int) {
	if n < 1 {
		n = 1
	}
	s.maxRetries = n
}

// OnCreate registers a hook fired after any commit that creates a key
// under the given prefix.
func (s *Store) OnCreate(prefix string, fn CreateHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook{prefix: prefix, fn: fn})
}

// Get returns the committed value for key, or nil if absent.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[key]; ok {
		return r.value
	}
	return nil
}

// Transact runs fn against the latest committed value of key and
// commits the result if no concurrent writer committed in between.
// On conflict it re-invokes fn with the fresh value, up to the retry
// cap. Returns the committed value (nil when fn deleted the key).
func (s *Store) Transact(key string, fn Fn) (any, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		cur, ver := s.read(key)

		next, err := fn(cur)
		if err != nil {
			return nil, err
		}

		committed, created := s.commit(key, ver, next)
		if !committed {
			continue
		}
		if created {
			s.fireCreateHooks(key, next)
		}
		return next, nil
	}
	return nil, ErrContention
}

// Put unconditionally writes value (last writer wins). Entity creation
// paths use it; create hooks still fire so the normalizer sees spawns
// regardless of which API produced them.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	_, existed := s.rows[key]
	s.versions[key]++
	s.rows[key] = &row{value: value, version: s.versions[key]}
	s.mu.Unlock()
	if !existed {
		s.fireCreateHooks(key, value)
	}
}

// Delete removes key. Returns the removed value, or nil.
func (s *Store) Delete(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[key]
	if !ok {
		return nil
	}
	s.versions[key]++
	delete(s.rows, key)
	return r.value
}

// ForEachPrefix calls fn for every key under prefix, in key order,
// against a point-in-time copy of the matching rows. Mutations made by
// fn go through Transact as usual and may observe newer state.
func (s *Store) ForEachPrefix(prefix string, fn func(key string, value any)) {
	type kv struct {
		k string
		v any
	}
	s.mu.Lock()
	matched := make([]kv, 0, 16)
	for k, r := range s.rows {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, kv{k, r.value})
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].k < matched[j].k })
	for _, m := range matched {
		fn(m.k, m.v)
	}
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Export returns a point-in-time copy of all rows, for snapshots.
func (s *Store) Export() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.rows))
	for k, r := range s.rows {
		out[k] = r.value
	}
	return out
}

func (s *Store) read(key string) (any, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[key]; ok {
		return r.value, r.version
	}
	// Absent key: version 0 means "was absent at version s.versions[key]".
	return nil, s.versions[key]
}

// commit writes next iff the key's version is unchanged since the read.
// Returns (committed, created).
func (s *Store) commit(key string, readVer uint64, next any) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.rows[key]
	switch {
	case exists && r.version != readVer:
		return false, false
	case !exists && s.versions[key] != readVer:
		return false, false
	}

	if next == nil {
		if exists {
			s.versions[key]++
			delete(s.rows, key)
		}
		return true, false
	}

	s.versions[key]++
	s.rows[key] = &row{value: next, version: s.versions[key]}
	return true, !exists
}

func (s *Store) fireCreateHooks(key string, value any) {
	s.mu.Lock()
	hooks := make([]hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, h := range hooks {
		if strings.HasPrefix(key, h.prefix) {
			h.fn(key, value)
		}
	}
}
