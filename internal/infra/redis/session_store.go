package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"watchask/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionStore. Live
// sessions stay in a local map so turns within one instance avoid a
// round-trip; every Put also writes the snapshot to Redis with a TTL, and a
// local miss hydrates from the stored snapshot. This lets sessions survive a
// restart and be served by another instance.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.Token()] = session
	s.mu.Unlock()

	if data, err := json.Marshal(session.Snapshot()); err == nil {
		// best-effort snapshot write
		_ = s.client.Set(context.Background(), s.key(session.Token()), data, s.ttl).Err()
	}
}

func (s *SessionStore) Get(token string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if ok {
		return session, true
	}

	data, err := s.client.Get(context.Background(), s.key(token)).Bytes()
	if err != nil {
		return nil, false
	}
	var snap app.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	session = app.RestoreSession(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have hydrated meanwhile; keep the first.
	if existing, ok := s.sessions[token]; ok {
		return existing, true
	}
	s.sessions[token] = session
	return session, true
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "quiz:session:" + token
}
