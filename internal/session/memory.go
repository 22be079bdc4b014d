package session

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a process-local map. State is lost on
// restart and grows without bound, which is the documented trade-off for a
// single-process personal-site deployment.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

type memSession struct {
	state     State
	updatedAt time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memSession)}
}

func (s *MemoryStore) GetOrCreate(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.locked(id)), nil
}

// locked returns the live session for id, creating it if missing.
// Callers must hold the write lock.
func (s *MemoryStore) locked(id string) *memSession {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &memSession{state: newState(id), updatedAt: time.Now().UTC()}
		s.sessions[id] = sess
	}
	return sess
}

func (s *MemoryStore) SetTone(id, tone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(id)
	sess.state.Tone = tone
	sess.updatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetLanguage(id, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(id)
	sess.state.Language = language
	sess.updatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) AppendTurn(id, userText, botText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(id)
	sess.state.History = append(sess.state.History,
		Message{Sender: SenderUser, Text: userText},
		Message{Sender: SenderBot, Text: botText},
	)
	sess.updatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Get(id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return snapshot(sess), nil
}

func (s *MemoryStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, Summary{
			ID:        sess.state.ID,
			Tone:      sess.state.Tone,
			Language:  sess.state.Language,
			Messages:  len(sess.state.History),
			UpdatedAt: sess.updatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func snapshot(sess *memSession) State {
	st := sess.state
	if st.History != nil {
		st.History = make([]Message, len(sess.state.History))
		copy(st.History, sess.state.History)
	}
	return st
}
