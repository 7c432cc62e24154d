package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"quiz-play-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own timers and subscriber channels, so the live objects stay in a local map.
//   - Redis marks session liveness (quiz:session:{id} -> quiz id) so other instances
//     and operators can see which play-throughs are running.
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
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(session.ID()), session.Quiz().ID, s.ttl).Err(); err != nil {
		log.WithField("session", session.ID()).WithError(err).Warn("marking session live failed")
	}
}

// Get returns a local session and refreshes its liveness marker.
func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
