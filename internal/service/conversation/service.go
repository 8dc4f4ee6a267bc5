package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Danish137/Digital-twin/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyTurnText   = errors.New("turn text is empty")
	ErrInvalidRole     = errors.New("invalid turn role")
)

// Service owns the per-session turn logs. Each session is an append-only
// sequence whose first turn, when a persona is configured, is the system
// prompt seeded exactly once at session creation.
type Service struct {
	mu           sync.RWMutex
	systemPrompt string
	sessions     map[string]chat.Session
	turns        map[string][]chat.Turn
}

// NewService bootstraps the in-memory conversation log. systemPrompt may be
// empty, in which case sessions start with no system turn.
func NewService(systemPrompt string) *Service {
	return &Service{
		systemPrompt: systemPrompt,
		sessions:     make(map[string]chat.Session),
		turns:        make(map[string][]chat.Turn),
	}
}

// CreateSession provisions an anonymous session seeded with the system turn.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = s.seedTurns()
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Append adds a turn to the end of the session log. User and assistant turns
// must carry non-empty text; the log only ever grows.
func (s *Service) Append(_ context.Context, sessionID string, turn chat.Turn) error {
	switch turn.Role {
	case chat.RoleUser, chat.RoleAssistant:
		if strings.TrimSpace(turn.Text) == "" {
			return ErrEmptyTurnText
		}
	case chat.RoleSystem:
		// The system turn is seeded by CreateSession/Reset, never appended.
		return ErrInvalidRole
	default:
		return ErrInvalidRole
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

// History returns the full turn sequence in insertion order, system turn first.
func (s *Service) History(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Reset clears the session back to the seeded system turn.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.turns[sessionID] = s.seedTurns()
	return nil
}

func (s *Service) seedTurns() []chat.Turn {
	turns := make([]chat.Turn, 0, 16)
	if s.systemPrompt != "" {
		turns = append(turns, chat.Turn{
			Role:      chat.RoleSystem,
			Text:      s.systemPrompt,
			CreatedAt: time.Now().UTC(),
		})
	}
	return turns
}
