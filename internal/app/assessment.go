package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/scoring"
)

// AssessmentDeps are the collaborators shared by every attempt.
type AssessmentDeps struct {
	Content     ContentSource
	Adaptive    AdaptiveService
	Sessions    SessionStarter
	Captures    CaptureFactory
	Results     *Results
	ItemTimeout time.Duration
	Game        GameConfig
	// NewRand seeds the game of each attempt. Defaults to a time seed.
	NewRand func() *rand.Rand
	Now     func() time.Time
}

// AssessmentBuilder creates attempts over shared dependencies.
type AssessmentBuilder struct {
	deps AssessmentDeps
}

func NewAssessmentBuilder(deps AssessmentDeps) *AssessmentBuilder {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRand == nil {
		deps.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if deps.Results == nil {
		deps.Results = NewResults(nil)
	}
	return &AssessmentBuilder{deps: deps}
}

// Begin creates one attempt. An explicit sessionID is used as is; otherwise,
// when startSession is set, a session is requested from the adaptive service
// and a failure leaves the attempt session-less.
func (b *AssessmentBuilder) Begin(ctx context.Context, sessionID string, startSession bool) *Assessment {
	if sessionID == "" && startSession && b.deps.Sessions != nil {
		sid, err := b.deps.Sessions.StartSession(ctx)
		if err != nil {
			log.Printf("assessment: start session: %v", err)
		} else {
			sessionID = sid
		}
	}
	return &Assessment{deps: b.deps, sessionID: sessionID, orch: NewOrchestrator()}
}

// Assessment is one attempt: it owns the orchestrator and whichever runner
// or game is active, and routes client events to them. Not safe for
// concurrent use.
type Assessment struct {
	deps      AssessmentDeps
	sessionID string
	orch      *Orchestrator
	runner    *BlockRunner
	game      *CognitiveGame
	report    *domain.Report
	notice    string
	started   bool
	closed    bool
}

func (a *Assessment) SessionID() string {
	return a.sessionID
}

func (a *Assessment) Phase() Phase {
	return a.orch.Phase()
}

// Start begins the career block.
func (a *Assessment) Start(ctx context.Context) error {
	if a.closed {
		return domain.ErrClosed
	}
	if a.started {
		return fmt.Errorf("assessment already started: %w", domain.ErrPhaseOrder)
	}
	a.started = true
	return a.startBlock(ctx, domain.BlockCareer)
}

func (a *Assessment) startBlock(ctx context.Context, block domain.Block) error {
	a.runner = NewBlockRunner(RunnerConfig{
		Block:       block,
		Scorer:      scoring.ForBlock(block),
		Content:     a.deps.Content,
		Adaptive:    a.deps.Adaptive,
		SessionID:   a.sessionID,
		Captures:    a.deps.Captures,
		ItemTimeout: a.deps.ItemTimeout,
		Now:         a.deps.Now,
	})
	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	return a.afterRunner(ctx)
}

func (a *Assessment) activeRunner() (*BlockRunner, error) {
	if a.closed {
		return nil, domain.ErrClosed
	}
	if a.runner == nil {
		return nil, domain.ErrNotPresenting
	}
	return a.runner, nil
}

func (a *Assessment) Answer(answer domain.Answer) error {
	r, err := a.activeRunner()
	if err != nil {
		return err
	}
	return r.SetAnswer(answer)
}

func (a *Assessment) Advance(ctx context.Context) error {
	r, err := a.activeRunner()
	if err != nil {
		return err
	}
	if err := r.Advance(ctx); err != nil {
		return err
	}
	return a.afterRunner(ctx)
}

func (a *Assessment) capture() (*Capture, error) {
	r, err := a.activeRunner()
	if err != nil {
		return nil, err
	}
	c := r.Capture()
	if c == nil {
		return nil, fmt.Errorf("no capture for presented item: %w", domain.ErrCaptureState)
	}
	return c, nil
}

func (a *Assessment) StartCapture(ctx context.Context) error {
	c, err := a.capture()
	if err != nil {
		return err
	}
	return c.Start(ctx, a.deps.Now())
}

func (a *Assessment) StopCapture(ctx context.Context) error {
	c, err := a.capture()
	if err != nil {
		return err
	}
	return c.Stop(ctx, a.deps.Now())
}

func (a *Assessment) Rerecord(ctx context.Context) error {
	c, err := a.capture()
	if err != nil {
		return err
	}
	return c.Rerecord(ctx, a.deps.Now())
}

// SubmitCapture submits the recording and advances the block.
func (a *Assessment) SubmitCapture(ctx context.Context) error {
	r, err := a.activeRunner()
	if err != nil {
		return err
	}
	if err := r.SubmitCapture(ctx); err != nil {
		return err
	}
	return a.afterRunner(ctx)
}

func (a *Assessment) StartGame() error {
	if a.closed {
		return domain.ErrClosed
	}
	if a.game == nil {
		return fmt.Errorf("game not available in %s: %w", a.orch.Phase(), domain.ErrGameState)
	}
	return a.game.Start(a.deps.Now())
}

func (a *Assessment) Respond(ctx context.Context) (GameOutcome, error) {
	if a.closed {
		return OutcomeIgnored, domain.ErrClosed
	}
	if a.game == nil {
		return OutcomeIgnored, fmt.Errorf("game not available in %s: %w", a.orch.Phase(), domain.ErrGameState)
	}
	outcome := a.game.Respond(a.deps.Now())
	a.afterGame(ctx)
	return outcome, nil
}

// Tick drives whichever component is active.
func (a *Assessment) Tick(ctx context.Context, now time.Time) error {
	if a.closed {
		return nil
	}
	if a.runner != nil {
		if err := a.runner.Tick(ctx, now); err != nil {
			return err
		}
		return a.afterRunner(ctx)
	}
	if a.game != nil {
		a.game.Tick(now)
		a.afterGame(ctx)
	}
	return nil
}

func (a *Assessment) afterRunner(ctx context.Context) error {
	if a.runner == nil || !a.runner.Done() {
		return nil
	}
	result, _ := a.runner.Result()
	a.notice = a.runner.notice
	a.runner.Close()
	a.runner = nil

	switch result.Block {
	case domain.BlockCareer:
		if err := a.orch.CompleteCareer(result); err != nil {
			return err
		}
		return a.startBlock(ctx, domain.BlockAcademic)
	case domain.BlockAcademic:
		if err := a.orch.CompleteAcademic(result); err != nil {
			return err
		}
		a.game = NewCognitiveGame(a.deps.Game, a.deps.NewRand())
	}
	return nil
}

func (a *Assessment) afterGame(ctx context.Context) {
	if a.game == nil || !a.game.Done() {
		return
	}
	score := a.game.Score()
	a.game.Close()
	a.game = nil
	if err := a.orch.CompleteCognitive(score); err != nil {
		log.Printf("assessment: complete cognitive: %v", err)
		return
	}
	agg, _ := a.orch.Aggregate()
	report := a.deps.Results.Build(ctx, agg)
	a.report = &report
}

// Report returns the results once every phase completed.
func (a *Assessment) Report() (domain.Report, bool) {
	if a.report == nil {
		return domain.Report{}, false
	}
	return *a.report, true
}

// Close tears down the active runner or game. Idempotent.
func (a *Assessment) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.runner != nil {
		a.runner.Close()
	}
	if a.game != nil {
		a.game.Close()
	}
}

type AssessmentView struct {
	SessionID string         `json:"sessionId,omitempty"`
	Phase     Phase          `json:"phase"`
	Progress  int            `json:"progress"`
	Block     *RunnerView    `json:"block,omitempty"`
	Game      *GameView      `json:"game,omitempty"`
	Report    *domain.Report `json:"report,omitempty"`
	Notice    string         `json:"notice,omitempty"`
}

func (a *Assessment) View(now time.Time) AssessmentView {
	v := AssessmentView{
		SessionID: a.sessionID,
		Phase:     a.orch.Phase(),
		Progress:  a.orch.Progress(),
		Report:    a.report,
		Notice:    a.notice,
	}
	if a.runner != nil {
		rv := a.runner.View(now)
		v.Block = &rv
	}
	if a.game != nil {
		gv := a.game.View(now)
		v.Game = &gv
	}
	return v
}
