package app_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/domain"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

type fakeContent struct {
	items map[domain.Block][]domain.Item
	err   error
	calls int
}

func (f *fakeContent) ListItems(_ context.Context, block domain.Block) ([]domain.Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Item, len(f.items[block]))
	copy(out, f.items[block])
	return out, nil
}

type failingAdaptive struct {
	nextCalls   int
	submitCalls int
}

func (f *failingAdaptive) NextItem(context.Context, string, domain.Block) (domain.Item, error) {
	f.nextCalls++
	return domain.Item{}, errors.New("adaptive service unavailable")
}

func (f *failingAdaptive) SubmitResponse(context.Context, string, domain.Block, string, domain.ResponsePayload) (domain.SubmitResult, error) {
	f.submitCalls++
	return domain.SubmitResult{}, errors.New("adaptive service unavailable")
}

type scriptedAdaptive struct {
	items     []domain.Item
	next      int
	submitted []string
	payloads  []domain.ResponsePayload
	submitErr error
}

func (s *scriptedAdaptive) NextItem(context.Context, string, domain.Block) (domain.Item, error) {
	if s.next >= len(s.items) {
		return domain.Item{}, domain.ErrNoItems
	}
	item := s.items[s.next]
	s.next++
	return item, nil
}

func (s *scriptedAdaptive) SubmitResponse(_ context.Context, _ string, _ domain.Block, itemID string, payload domain.ResponsePayload) (domain.SubmitResult, error) {
	s.submitted = append(s.submitted, itemID)
	s.payloads = append(s.payloads, payload)
	return domain.SubmitResult{UpdatedTheta: 0.1}, s.submitErr
}

type fakeRecorder struct {
	recording app.Recording
	stopErr   error
	released  int
}

func (r *fakeRecorder) Stop(context.Context) (app.Recording, error) {
	if r.stopErr != nil {
		return app.Recording{}, r.stopErr
	}
	return r.recording, nil
}

func (r *fakeRecorder) Release() { r.released++ }

type fakeDevice struct {
	err       error
	recorders []*fakeRecorder
}

func (d *fakeDevice) Open(_ context.Context, kind domain.ItemType) (app.Recorder, error) {
	if d.err != nil {
		return nil, d.err
	}
	n := len(d.recorders) + 1
	rec := &fakeRecorder{recording: app.Recording{
		ID:          fmt.Sprintf("rec-%d", n),
		URL:         fmt.Sprintf("media://rec-%d", n),
		ContentType: string(kind) + "/webm",
		Data:        []byte("blob"),
	}}
	d.recorders = append(d.recorders, rec)
	return rec, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSentiment struct {
	scores []domain.SentimentScore
	err    error
	calls  int
}

func (f *fakeSentiment) Sentiment(context.Context, string) ([]domain.SentimentScore, error) {
	f.calls++
	return f.scores, f.err
}

type fakeRecommender struct {
	recs  domain.Recommendations
	err   error
	got   map[domain.Trait]float64
	calls int
}

func (f *fakeRecommender) Recommend(_ context.Context, scores map[domain.Trait]float64) (domain.Recommendations, error) {
	f.calls++
	f.got = scores
	return f.recs, f.err
}

type countingInvalidator struct {
	blocks []domain.Block
}

func (c *countingInvalidator) Invalidate(_ context.Context, block domain.Block) {
	c.blocks = append(c.blocks, block)
}

func careerItems() []domain.Item {
	return []domain.Item{
		{ID: "c1", Type: domain.ItemMCQ, Prompt: "A teammate is struggling to meet an important deadline. What would you do?", Options: []string{"Offer to help them with specific tasks", "Notify the team leader", "Wait to see if they can handle it alone"}, Difficulty: 3, Block: domain.BlockCareer},
		{ID: "c2", Type: domain.ItemMCQ, Prompt: "Your idea is ignored in a meeting.", Options: []string{"Acknowledge and invite feedback", "Stay quiet to avoid conflict"}, Difficulty: 5, Block: domain.BlockCareer},
	}
}

func academicItems() []domain.Item {
	return []domain.Item{
		{ID: "a1", Type: domain.ItemMCQ, Prompt: "Foxes are removed. What happens?", Options: []string{"The rabbit population will likely increase", "The plant population will decrease"}, Difficulty: 4, Block: domain.BlockAcademic},
		{ID: "a2", Type: domain.ItemText, Prompt: "How would you teach recycling?", Difficulty: 5, Block: domain.BlockAcademic},
	}
}
