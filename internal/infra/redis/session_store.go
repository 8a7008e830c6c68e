package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Live sessions stay in a local map so the in-process broadcast keeps working;
// Redis mirrors each snapshot so other instances can read session state.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
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
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.Save(session)
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Save mirrors the session snapshot; failures are logged and otherwise ignored.
// Sessions already deleted are not mirrored again.
func (s *SessionStore) Save(session *app.Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if live, ok := s.sessions[session.ID()]; !ok || live != session {
		return
	}
	data, err := json.Marshal(session.Snapshot())
	if err != nil {
		log.Printf("encode session %s: %v", session.ID(), err)
		return
	}
	if err := s.client.Set(context.Background(), s.key(session.ID()), data, s.ttl).Err(); err != nil {
		log.Printf("mirror session %s: %v", session.ID(), err)
	}
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// LoadSnapshot reads the mirrored snapshot of a session held by any instance.
func (s *SessionStore) LoadSnapshot(ctx context.Context, sessionID string) (app.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Snapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return app.Snapshot{}, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
