// Package session keeps signed-in users in memory, keyed by an opaque id
// handed to the browser in a cookie.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Session is one signed-in user.
type Session struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	Nama      string    `json:"nama"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store holds sessions until they expire or are deleted.
type Store struct {
	ttl   time.Duration
	cache *gocache.Cache
}

// NewStore creates a store whose sessions live for ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	cleanup := ttl / 4
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{ttl: ttl, cache: gocache.New(ttl, cleanup)}
}

// Create starts a session for the user and returns it.
func (s *Store) Create(username, nama string) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		Nama:      nama,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.cache.Set(sess.ID, sess, s.ttl)
	return sess
}

// Get returns the live session for id.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Delete ends the session for id. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// OnEvict registers fn to run whenever a session is deleted or expires.
func (s *Store) OnEvict(fn func(id string)) {
	s.cache.OnEvicted(func(id string, _ any) { fn(id) })
}

// Count returns the number of stored sessions, expired ones included until
// the next cleanup.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

type ctxKey struct{}

// NewContext returns ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok && sess != nil
}
