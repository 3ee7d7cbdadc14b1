package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/vibesync/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// RoomCodeAlphabet excludes glyphs that are easy to confuse when read aloud or typed: 0, O, 1, I and L.
const RoomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	RoomCodeLength  = 6
	HandoffIDLength = 11
	StateLength     = 22
)

// KeyFunc generates a candidate key for a new record.
type KeyFunc func() (string, error)

// RoomCodes returns a [KeyFunc] producing room codes.
func RoomCodes() KeyFunc {
	return func() (string, error) { return gonanoid.Generate(RoomCodeAlphabet, RoomCodeLength) }
}

// URLSafeIDs returns a [KeyFunc] producing random URL-safe ids of length n.
func URLSafeIDs(n int) KeyFunc {
	return func() (string, error) { return gonanoid.New(n) }
}

// Store holds records of one kind until they are removed or expire.
type Store[T models.Staged] struct {
	mu     sync.Mutex
	items  map[string]T
	ttl    time.Duration
	now    func() time.Time
	keyGen KeyFunc
}

// Option configures a [Store].
type Option func(*storeOptions)

type storeOptions struct {
	now    func() time.Time
	keyGen KeyFunc
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithKeyFunc overrides key generation.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *storeOptions) { o.keyGen = fn }
}

// NewStore creates a [Store] whose records live for ttl.
func NewStore[T models.Staged](ttl time.Duration, keyGen KeyFunc, opts ...Option) *Store[T] {
	o := storeOptions{now: time.Now, keyGen: keyGen}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		items:  make(map[string]T),
		ttl:    ttl,
		now:    o.now,
		keyGen: o.keyGen,
	}
}

// NewRoomStore creates the store for waiting rooms.
func NewRoomStore(ttl time.Duration, opts ...Option) *Store[models.Room] {
	return NewStore[models.Room](ttl, RoomCodes(), opts...)
}

// NewHandoffStore creates the store for OAuth handoff sessions.
func NewHandoffStore(ttl time.Duration, opts ...Option) *Store[models.Handoff] {
	return NewStore[models.Handoff](ttl, URLSafeIDs(HandoffIDLength), opts...)
}

// NewStateStore creates the store for pending OAuth states.
func NewStateStore(ttl time.Duration, opts ...Option) *Store[models.OAuthState] {
	return NewStore[models.OAuthState](ttl, URLSafeIDs(StateLength), opts...)
}

// TTL returns how long records live.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Now returns the store's current time, for stamping new records.
func (s *Store[T]) Now() time.Time {
	return s.now()
}

// sweep drops expired records. Callers must hold s.mu.
func (s *Store[T]) sweep() {
	now := s.now()
	for key, item := range s.items {
		if !now.Before(item.StagedAt().Add(s.ttl)) {
			delete(s.items, key)
		}
	}
}

// allocate returns a key not held by any live record. Callers must hold s.mu.
//
// Collisions are retried until a free key turns up.
func (s *Store[T]) allocate() (string, error) {
	for {
		key, err := s.keyGen()
		if err != nil {
			return "", fmt.Errorf("failed to generate key: %w", err)
		}
		if _, taken := s.items[key]; !taken {
			return key, nil
		}
	}
}

// Insert allocates a fresh key and stores the record built for it.
func (s *Store[T]) Insert(build func(key string) T) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	key, err := s.allocate()
	if err != nil {
		return "", err
	}
	s.items[key] = build(key)
	return key, nil
}

// Upsert looks for a live record satisfying match. When one exists it is replaced by
// update(existing) under its current key. Otherwise a new record is built under a fresh key.
//
// The returned bool reports whether a new record was created.
func (s *Store[T]) Upsert(match func(T) bool, update func(T) T, build func(key string) T) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	for key, item := range s.items {
		if match(item) {
			s.items[key] = update(item)
			return key, false, nil
		}
	}

	key, err := s.allocate()
	if err != nil {
		return "", false, err
	}
	s.items[key] = build(key)
	return key, true, nil
}

// Get returns the live record stored under key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	item, ok := s.items[key]
	return item, ok
}

// Pop removes and returns the live record stored under key. A popped key never resolves again.
func (s *Store[T]) Pop(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	item, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return item, ok
}

// Resolve looks up key and hands the record to decide while the lock is held, so no other
// operation can observe or remove the record in between. The record is deleted when decide
// says so, whether or not it also returns an error.
//
// ok is false when no live record exists under key; decide is not called then.
func (s *Store[T]) Resolve(key string, decide func(T) (remove bool, err error)) (item T, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	item, ok = s.items[key]
	if !ok {
		return item, false, nil
	}

	remove, err := decide(item)
	if remove {
		delete(s.items, key)
	}
	return item, true, err
}

// Len returns the number of live records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.items)
}
