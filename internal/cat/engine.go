// Package cat implements the adaptive item-selection engine behind the
// session, next-item, submit and finalize endpoints.
//
// Ability is tracked per block on a logit scale with a one-parameter Rasch
// model. Items carry 1-10 difficulties which are mapped onto the same scale.
package cat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pathfinder-service/internal/domain"
)

const (
	learningRate = 0.8
	// routingTheta is the academic ability above which the easiest remaining
	// item is skipped.
	routingTheta = 0.8
	// mediaBaseline is the credit for a media response without a positive sentiment.
	mediaBaseline   = 0.2
	textFullCredit  = 120
	finalizeCeiling = 10
)

// ItemBank supplies each block's items in ascending difficulty.
type ItemBank interface {
	ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error)
}

type Engine struct {
	bank     ItemBank
	sessions SessionStore
	newID    func() string
	now      func() time.Time
}

func NewEngine(bank ItemBank, sessions SessionStore) *Engine {
	return &Engine{bank: bank, sessions: sessions, newID: uuid.NewString, now: time.Now}
}

func (e *Engine) StartSession(ctx context.Context) (string, error) {
	id := e.newID()
	if err := e.sessions.Create(ctx, NewSession(id, e.now().UTC())); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Logit maps a 1-10 difficulty onto the ability scale.
func Logit(difficulty int) float64 {
	return (float64(difficulty) - 5.5) / 2.25
}

// Probability is the Rasch 1PL chance of success.
func Probability(theta, b float64) float64 {
	return 1 / (1 + math.Exp(-(theta - b)))
}

// NextItem selects the unanswered item whose difficulty is closest to the
// block's current ability. Ties go to the easier item.
func (e *Engine) NextItem(ctx context.Context, sessionID string, block domain.Block) (domain.Item, error) {
	if !block.Valid() {
		return domain.Item{}, fmt.Errorf("%q: %w", block, domain.ErrInvalidBlock)
	}
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Item{}, err
	}
	items, err := e.bank.ListItems(ctx, block)
	if err != nil {
		return domain.Item{}, fmt.Errorf("load %s items: %w", block, err)
	}

	theta := sess.Theta[block]
	best, found := domain.Item{}, false
	bestDist := math.Inf(1)
	for _, item := range items {
		if sess.HasAnswered(block, item.ID) {
			continue
		}
		if d := math.Abs(Logit(item.Difficulty) - theta); d < bestDist {
			best, bestDist, found = item, d, true
		}
	}
	if !found {
		return domain.Item{}, domain.ErrNoItems
	}
	return best, nil
}

// SubmitResponse scores one response and updates ability and subscores.
// Repeated submissions for an item are no-ops that report the current ability.
func (e *Engine) SubmitResponse(ctx context.Context, sessionID string, block domain.Block, itemID string, payload domain.ResponsePayload) (domain.SubmitResult, error) {
	if !block.Valid() {
		return domain.SubmitResult{}, fmt.Errorf("%q: %w", block, domain.ErrInvalidBlock)
	}
	items, err := e.bank.ListItems(ctx, block)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("load %s items: %w", block, err)
	}

	var result domain.SubmitResult
	_, err = e.sessions.Update(ctx, sessionID, func(s *Session) error {
		result = domain.SubmitResult{UpdatedTheta: s.Theta[block]}
		if s.HasAnswered(block, itemID) {
			return nil
		}
		s.MarkAnswered(block, itemID)

		item, ok := findItem(items, itemID)
		if !ok {
			return nil
		}
		score := ItemScore(item, payload)
		theta := s.Theta[block]
		theta += learningRate * (score - Probability(theta, Logit(item.Difficulty)))
		s.Theta[block] = theta
		applySubscores(s, block, item, score)

		if block == domain.BlockAcademic && theta > routingTheta {
			for _, candidate := range items {
				if !s.HasAnswered(block, candidate.ID) {
					s.MarkAnswered(block, candidate.ID)
					break
				}
			}
		}
		result = domain.SubmitResult{UpdatedTheta: theta, NextRecommendedBlock: nextBlock(s, block, items)}
		return nil
	})
	if err != nil {
		return domain.SubmitResult{}, err
	}
	return result, nil
}

// Finalize returns subscores clamped to 0-10 and rounded to two decimals.
// Unknown sessions finalize to zeros.
func (e *Engine) Finalize(ctx context.Context, sessionID string) (map[domain.Trait]float64, error) {
	out := make(map[domain.Trait]float64, len(domain.Traits))
	for _, trait := range domain.Traits {
		out[trait] = 0
	}
	sess, err := e.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	for trait, v := range sess.Subscores {
		v = math.Max(0, math.Min(finalizeCeiling, v))
		out[trait] = math.Round(v*100) / 100
	}
	return out, nil
}

// ItemScore grades one response in [0, 1].
func ItemScore(item domain.Item, payload domain.ResponsePayload) float64 {
	switch {
	case item.Type == domain.ItemMCQ:
		correct, ok := item.CorrectOption()
		if ok && payload.Answer != "" && payload.Answer == correct {
			return 1
		}
		return 0
	case item.Type == domain.ItemText:
		n := utf8.RuneCountInString(strings.TrimSpace(payload.Answer))
		return math.Min(1, float64(n)/textFullCredit)
	case item.Type.IsMedia():
		for _, s := range payload.Sentiment {
			if strings.HasPrefix(strings.ToUpper(s.Label), "POS") {
				return s.Score
			}
		}
		return mediaBaseline
	default:
		return 0
	}
}

func applySubscores(s *Session, block domain.Block, item domain.Item, score float64) {
	if s.Subscores == nil {
		s.Subscores = map[domain.Trait]float64{}
	}
	if block == domain.BlockCareer {
		s.Subscores[domain.TraitTeamwork] += 1.5 * score
		s.Subscores[domain.TraitEmpathy] += 1.2 * score
		s.Subscores[domain.TraitCommunication] += 1.3 * score
		return
	}
	if item.Type == domain.ItemMCQ {
		s.Subscores[domain.TraitLogic] += 1.8 * score
		return
	}
	s.Subscores[domain.TraitCreativity] += 1.6 * score
}

// nextBlock names the following phase once a block has nothing left.
func nextBlock(s *Session, block domain.Block, items []domain.Item) string {
	for _, item := range items {
		if !s.HasAnswered(block, item.ID) {
			return ""
		}
	}
	if block == domain.BlockCareer {
		return string(domain.BlockAcademic)
	}
	return "cognitive"
}

func findItem(items []domain.Item, id string) (domain.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.Item{}, false
}
