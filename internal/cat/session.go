package cat

import (
	"context"
	"time"

	"pathfinder-service/internal/domain"
)

// Session is the engine-side state of one assessment attempt.
type Session struct {
	ID        string                    `json:"id"`
	Theta     map[domain.Block]float64  `json:"theta"`
	Answered  map[domain.Block][]string `json:"answered"`
	Subscores map[domain.Trait]float64  `json:"subscores"`
	CreatedAt time.Time                 `json:"created_at"`
}

func NewSession(id string, now time.Time) Session {
	s := Session{
		ID:        id,
		Theta:     map[domain.Block]float64{domain.BlockCareer: 0, domain.BlockAcademic: 0},
		Answered:  map[domain.Block][]string{},
		Subscores: map[domain.Trait]float64{},
		CreatedAt: now,
	}
	for _, trait := range domain.Traits {
		s.Subscores[trait] = 0
	}
	return s
}

func (s *Session) HasAnswered(block domain.Block, itemID string) bool {
	for _, id := range s.Answered[block] {
		if id == itemID {
			return true
		}
	}
	return false
}

func (s *Session) MarkAnswered(block domain.Block, itemID string) {
	if s.Answered == nil {
		s.Answered = map[domain.Block][]string{}
	}
	if !s.HasAnswered(block, itemID) {
		s.Answered[block] = append(s.Answered[block], itemID)
	}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := Session{
		ID:        s.ID,
		Theta:     make(map[domain.Block]float64, len(s.Theta)),
		Answered:  make(map[domain.Block][]string, len(s.Answered)),
		Subscores: make(map[domain.Trait]float64, len(s.Subscores)),
		CreatedAt: s.CreatedAt,
	}
	for k, v := range s.Theta {
		out.Theta[k] = v
	}
	for k, v := range s.Answered {
		out.Answered[k] = append([]string(nil), v...)
	}
	for k, v := range s.Subscores {
		out.Subscores[k] = v
	}
	return out
}

// SessionStore persists sessions. Get and Update return
// domain.ErrSessionNotFound for unknown ids. Update applies fn atomically
// with respect to other updates of the same session.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (Session, error)
}
