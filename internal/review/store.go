// internal/review/store.go
package review

import (
	"sync"

	"github.com/google/uuid"
)

// Store はテナントごとのレビューセッションを保持するインメモリストアです。
// 1テナントにつき同時に1セッションのみ。新しい生成が始まると前の
// セッションは破棄されます。
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

func (s *Store) Put(tenantID uuid.UUID, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tenantID] = session
}

func (s *Store) Get(tenantID uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[tenantID]
	return session, ok
}

func (s *Store) Delete(tenantID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tenantID)
}
