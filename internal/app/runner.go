package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/scoring"
)

type RunnerState string

const (
	RunnerLoading    RunnerState = "loading"
	RunnerPresenting RunnerState = "presenting"
	RunnerSubmitting RunnerState = "submitting"
	RunnerComplete   RunnerState = "complete"
)

const (
	DefaultItemTimeout = 75 * time.Second
	// MinTextAnswer is the trimmed length a free-text answer must exceed.
	MinTextAnswer = 20
)

const noticeContentFailed = "Could not load questions. Moving on."

// RunnerConfig parametrizes one block. Adaptive and SessionID are optional;
// without both the runner iterates the content list positionally.
type RunnerConfig struct {
	Block       domain.Block
	Scorer      scoring.Scorer
	Content     ContentSource
	Adaptive    AdaptiveService
	SessionID   string
	Captures    CaptureFactory
	ItemTimeout time.Duration
	Now         func() time.Time
}

// BlockRunner drives one assessment block: it loads items, presents them
// one at a time, scores each finalized answer exactly once and emits a
// BlockResult on completion. It is not safe for concurrent use; the owner
// serializes calls.
type BlockRunner struct {
	cfg RunnerConfig

	state    RunnerState
	adaptive bool
	items    []domain.Item
	index    int
	current  domain.Item
	answer   domain.Answer
	seen     map[string]bool

	records   []domain.AnswerRecord
	subscores domain.Subscores

	countdown *Countdown
	// expired is set when the item timed out without a valid answer.
	expired bool
	capture *Capture
	notice  string
	result  domain.BlockResult
	closed  bool
}

func NewBlockRunner(cfg RunnerConfig) *BlockRunner {
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = DefaultItemTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Scorer == nil {
		cfg.Scorer = scoring.ForBlock(cfg.Block)
	}
	return &BlockRunner{
		cfg:       cfg,
		state:     RunnerLoading,
		seen:      map[string]bool{},
		subscores: domain.NewSubscores(cfg.Block),
		countdown: NewCountdown(cfg.ItemTimeout),
	}
}

func (r *BlockRunner) State() RunnerState {
	return r.state
}

func (r *BlockRunner) Done() bool {
	return r.state == RunnerComplete
}

// Start resolves the item source. With a session it tries one adaptive
// fetch; otherwise, or on failure, it loads the content list once.
func (r *BlockRunner) Start(ctx context.Context) error {
	if r.closed {
		return domain.ErrClosed
	}
	if r.state != RunnerLoading {
		return fmt.Errorf("start block %s in %s: %w", r.cfg.Block, r.state, domain.ErrPhaseOrder)
	}

	if r.cfg.Adaptive != nil && r.cfg.SessionID != "" {
		item, err := r.cfg.Adaptive.NextItem(ctx, r.cfg.SessionID, r.cfg.Block)
		if err == nil {
			r.adaptive = true
			r.present(item)
			return nil
		}
		log.Printf("runner %s: adaptive next item: %v", r.cfg.Block, err)
	}

	items, err := r.cfg.Content.ListItems(ctx, r.cfg.Block)
	if err != nil {
		log.Printf("runner %s: list items: %v", r.cfg.Block, err)
		r.notice = noticeContentFailed
		r.complete()
		return nil
	}
	r.items = items
	if len(items) == 0 {
		r.complete()
		return nil
	}
	r.present(items[0])
	return nil
}

// SetAnswer replaces the pending answer for the presented item.
func (r *BlockRunner) SetAnswer(a domain.Answer) error {
	if r.closed {
		return domain.ErrClosed
	}
	if r.state != RunnerPresenting {
		return domain.ErrNotPresenting
	}
	if a == nil || !a.Accepts(r.current.Type) {
		return fmt.Errorf("item %s is %s: %w", r.current.ID, r.current.Type, domain.ErrAnswerTypeMismatch)
	}
	if choice, ok := a.(domain.ChoiceAnswer); ok && choice.Option != "" && !r.current.HasOption(choice.Option) {
		return fmt.Errorf("item %s: %q: %w", r.current.ID, choice.Option, domain.ErrOptionNotFound)
	}
	r.answer = a
	return nil
}

// CanAdvance reports whether the pending answer satisfies the item's predicate.
func (r *BlockRunner) CanAdvance() bool {
	return !r.closed && r.state == RunnerPresenting && answerValid(r.current, r.answer)
}

func answerValid(item domain.Item, a domain.Answer) bool {
	switch v := a.(type) {
	case domain.ChoiceAnswer:
		return item.Type == domain.ItemMCQ && v.Option != "" && item.HasOption(v.Option)
	case domain.TextAnswer:
		return item.Type == domain.ItemText && utf8.RuneCountInString(strings.TrimSpace(v.Text)) > MinTextAnswer
	case domain.MediaAnswer:
		return item.Type.IsMedia() && v.MediaURL != ""
	default:
		return false
	}
}

// Advance finalizes the presented item: score, record, best-effort submit,
// then move to the next item or complete.
func (r *BlockRunner) Advance(ctx context.Context) error {
	if r.closed {
		return domain.ErrClosed
	}
	if r.state != RunnerPresenting {
		return domain.ErrNotPresenting
	}
	if !answerValid(r.current, r.answer) {
		return domain.ErrAnswerInvalid
	}

	r.state = RunnerSubmitting
	r.countdown.Stop()
	r.closeCapture()

	item, answer := r.current, r.answer
	r.subscores.Add(r.cfg.Scorer.Score(item, answer))
	r.records = append(r.records, domain.AnswerRecord{
		ItemID:     item.ID,
		Type:       item.Type,
		Answer:     answer,
		CapturedAt: r.cfg.Now(),
	})
	r.answer = nil

	if !r.adaptive {
		r.index++
		if r.index >= len(r.items) {
			r.complete()
			return nil
		}
		r.present(r.items[r.index])
		return nil
	}

	r.seen[item.ID] = true
	payload := domain.PayloadFromAnswer(answer)
	if _, err := r.cfg.Adaptive.SubmitResponse(ctx, r.cfg.SessionID, r.cfg.Block, item.ID, payload); err != nil {
		log.Printf("runner %s: submit %s: %v", r.cfg.Block, item.ID, err)
	}
	if r.closed {
		return nil
	}
	next, err := r.cfg.Adaptive.NextItem(ctx, r.cfg.SessionID, r.cfg.Block)
	if err != nil {
		log.Printf("runner %s: adaptive stream ended: %v", r.cfg.Block, err)
		r.complete()
		return nil
	}
	if r.seen[next.ID] {
		log.Printf("runner %s: adaptive service repeated item %s, completing block", r.cfg.Block, next.ID)
		r.complete()
		return nil
	}
	r.present(next)
	return nil
}

// Tick advances the capture widget and the item countdown.
func (r *BlockRunner) Tick(ctx context.Context, now time.Time) error {
	if r.closed || r.state != RunnerPresenting {
		return nil
	}
	if r.capture != nil {
		if answer, ok := r.capture.Tick(ctx, now); ok {
			r.answer = answer
			if r.expired {
				return r.Advance(ctx)
			}
		}
	}
	if r.countdown.Tick(now) {
		return r.Expire(ctx)
	}
	return nil
}

// Expire applies the item timeout: a valid answer advances, anything else
// stops the countdown and leaves the item presented without a record. A
// capture that auto-submits later still advances the item.
func (r *BlockRunner) Expire(ctx context.Context) error {
	if r.closed || r.state != RunnerPresenting {
		return nil
	}
	r.countdown.Stop()
	if answerValid(r.current, r.answer) {
		return r.Advance(ctx)
	}
	r.expired = true
	return nil
}

// Capture returns the widget for the presented media item, or nil.
func (r *BlockRunner) Capture() *Capture {
	return r.capture
}

// SubmitCapture submits the presented item's recording and advances.
func (r *BlockRunner) SubmitCapture(ctx context.Context) error {
	if r.closed {
		return domain.ErrClosed
	}
	if r.state != RunnerPresenting || r.capture == nil {
		return fmt.Errorf("no capture for item: %w", domain.ErrCaptureState)
	}
	answer, err := r.capture.Submit(ctx, r.cfg.Now())
	if err != nil {
		return err
	}
	r.answer = answer
	return r.Advance(ctx)
}

// Close cancels every timer and releases capture resources. Idempotent.
func (r *BlockRunner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.countdown.Stop()
	r.closeCapture()
}

// Result returns a copy of the block's output once complete.
func (r *BlockRunner) Result() (domain.BlockResult, bool) {
	if r.state != RunnerComplete {
		return domain.BlockResult{}, false
	}
	return r.result.Clone(), true
}

func (r *BlockRunner) present(item domain.Item) {
	r.closeCapture()
	now := r.cfg.Now()
	r.current = item
	r.answer = nil
	r.expired = false
	r.state = RunnerPresenting
	r.countdown.Start(now)
	if item.Type.IsMedia() && r.cfg.Captures != nil {
		r.capture = r.cfg.Captures(item.Type, now)
	}
}

func (r *BlockRunner) complete() {
	r.countdown.Stop()
	r.closeCapture()
	r.current = domain.Item{}
	r.answer = nil
	r.state = RunnerComplete
	r.result = domain.BlockResult{
		Block:     r.cfg.Block,
		Answers:   r.records,
		Subscores: r.subscores.Clone(),
	}.Clone()
}

func (r *BlockRunner) closeCapture() {
	if r.capture != nil {
		r.capture.Close()
		r.capture = nil
	}
}

// RunnerView is a read-only snapshot for rendering.
type RunnerView struct {
	Block      domain.Block       `json:"block"`
	State      RunnerState        `json:"state"`
	Adaptive   bool               `json:"adaptive"`
	Item       *domain.PublicItem `json:"item,omitempty"`
	Position   int                `json:"position"`
	Total      int                `json:"total,omitempty"`
	Answered   int                `json:"answered"`
	TimeLeft   int                `json:"timeLeft"`
	CanAdvance bool               `json:"canAdvance"`
	Notice     string             `json:"notice,omitempty"`
	Capture    *CaptureView       `json:"capture,omitempty"`
}

func (r *BlockRunner) View(now time.Time) RunnerView {
	v := RunnerView{
		Block:      r.cfg.Block,
		State:      r.state,
		Adaptive:   r.adaptive,
		Answered:   len(r.records),
		Position:   len(r.records) + 1,
		CanAdvance: r.CanAdvance(),
		Notice:     r.notice,
	}
	if !r.adaptive {
		v.Total = len(r.items)
	}
	if r.state == RunnerPresenting {
		item := r.current.Public()
		v.Item = &item
		v.TimeLeft = r.countdown.Remaining(now)
	}
	if r.capture != nil {
		cv := r.capture.View(now)
		v.Capture = &cv
	}
	return v
}
