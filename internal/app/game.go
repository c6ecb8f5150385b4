package app

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"pathfinder-service/internal/domain"
)

type GamePhase string

const (
	GameIdle    GamePhase = "idle"
	GameWaiting GamePhase = "waiting"
	GameVisible GamePhase = "visible"
	GameOver    GamePhase = "over"
)

type GameOutcome string

const (
	OutcomeHit     GameOutcome = "hit"
	OutcomeMiss    GameOutcome = "miss"
	OutcomeIgnored GameOutcome = "ignored"
)

type GameConfig struct {
	MaxAttempts int
	TimeLimit   time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Visible     time.Duration
	GreenRatio  float64
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		MaxAttempts: 15,
		TimeLimit:   120 * time.Second,
		MinDelay:    time.Second,
		MaxDelay:    3 * time.Second,
		Visible:     2 * time.Second,
		GreenRatio:  0.7,
	}
}

// CognitiveGame is the reaction-time trial loop. All time flows in through
// Start, Tick and Respond; pending transitions are applied in order on each
// call, so a late tick never skips a trial.
type CognitiveGame struct {
	cfg GameConfig
	rng *rand.Rand

	phase     GamePhase
	deadline  time.Time
	showAt    time.Time
	shownAt   time.Time
	hideAt    time.Time
	green     bool
	attempts  int
	hits      int
	reactions []time.Duration
	feedback  string
	closed    bool
}

func NewCognitiveGame(cfg GameConfig, rng *rand.Rand) *CognitiveGame {
	def := DefaultGameConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = def.TimeLimit
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = def.MinDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.Visible <= 0 {
		cfg.Visible = def.Visible
	}
	if cfg.GreenRatio <= 0 {
		cfg.GreenRatio = def.GreenRatio
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CognitiveGame{cfg: cfg, rng: rng, phase: GameIdle}
}

func (g *CognitiveGame) Phase() GamePhase {
	return g.phase
}

func (g *CognitiveGame) Done() bool {
	return g.phase == GameOver
}

func (g *CognitiveGame) Start(now time.Time) error {
	if g.closed {
		return domain.ErrClosed
	}
	if g.phase != GameIdle {
		return fmt.Errorf("start in %s: %w", g.phase, domain.ErrGameState)
	}
	g.deadline = now.Add(g.cfg.TimeLimit)
	g.feedback = "Focus! Press space when you see a green circle"
	g.schedule(now)
	return nil
}

// Tick applies every transition due at or before now.
func (g *CognitiveGame) Tick(now time.Time) {
	if g.closed {
		return
	}
	for {
		var next time.Time
		switch g.phase {
		case GameWaiting:
			next = g.showAt
		case GameVisible:
			next = g.hideAt
		default:
			return
		}
		if !g.deadline.After(next) && !now.Before(g.deadline) {
			g.end()
			return
		}
		if now.Before(next) {
			return
		}
		if g.phase == GameWaiting {
			g.show(next)
		} else {
			g.schedule(next)
		}
	}
}

// Respond registers a key press or click at now.
func (g *CognitiveGame) Respond(now time.Time) GameOutcome {
	g.Tick(now)
	if g.closed || g.phase != GameVisible {
		return OutcomeIgnored
	}
	reaction := now.Sub(g.shownAt)
	outcome := OutcomeMiss
	if g.green {
		g.hits++
		g.reactions = append(g.reactions, reaction)
		g.feedback = fmt.Sprintf("Great! %dms", reaction.Milliseconds())
		outcome = OutcomeHit
	} else {
		g.feedback = "That was red! Wait for green"
	}
	g.schedule(now)
	return outcome
}

// Score is round(100 * hits / maxAttempts).
func (g *CognitiveGame) Score() int {
	return int(math.Round(float64(g.hits) / float64(g.cfg.MaxAttempts) * 100))
}

func (g *CognitiveGame) AverageReaction() time.Duration {
	if len(g.reactions) == 0 {
		return 0
	}
	var total time.Duration
	for _, r := range g.reactions {
		total += r
	}
	return total / time.Duration(len(g.reactions))
}

// Close stops the game; later calls have no effect. Idempotent.
func (g *CognitiveGame) Close() {
	g.closed = true
}

func (g *CognitiveGame) schedule(now time.Time) {
	if g.attempts >= g.cfg.MaxAttempts {
		g.end()
		return
	}
	delay := g.cfg.MinDelay
	if spread := g.cfg.MaxDelay - g.cfg.MinDelay; spread > 0 {
		delay += time.Duration(g.rng.Int63n(int64(spread) + 1))
	}
	g.showAt = now.Add(delay)
	g.phase = GameWaiting
}

func (g *CognitiveGame) show(at time.Time) {
	g.green = g.rng.Float64() < g.cfg.GreenRatio
	g.attempts++
	g.shownAt = at
	g.hideAt = at.Add(g.cfg.Visible)
	g.phase = GameVisible
}

func (g *CognitiveGame) end() {
	g.phase = GameOver
	g.feedback = fmt.Sprintf("Game complete! Final score: %d", g.Score())
}

type GameView struct {
	Phase           GamePhase `json:"phase"`
	TargetVisible   bool      `json:"targetVisible"`
	Green           bool      `json:"green,omitempty"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"maxAttempts"`
	Hits            int       `json:"hits"`
	TimeLeft        int       `json:"timeLeft"`
	Score           int       `json:"score"`
	AverageReaction int64     `json:"averageReactionMs"`
	Feedback        string    `json:"feedback,omitempty"`
}

func (g *CognitiveGame) View(now time.Time) GameView {
	v := GameView{
		Phase:           g.phase,
		TargetVisible:   g.phase == GameVisible,
		Attempts:        g.attempts,
		MaxAttempts:     g.cfg.MaxAttempts,
		Hits:            g.hits,
		Score:           g.Score(),
		AverageReaction: g.AverageReaction().Milliseconds(),
		Feedback:        g.feedback,
	}
	if v.TargetVisible {
		v.Green = g.green
	}
	switch g.phase {
	case GameIdle:
		v.TimeLeft = int(g.cfg.TimeLimit / time.Second)
	case GameOver:
	default:
		if left := g.deadline.Sub(now); left > 0 {
			v.TimeLeft = int((left + time.Second - 1) / time.Second)
		}
	}
	return v
}
