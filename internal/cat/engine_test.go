package cat_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/infra/memory"
)

func newEngine(t *testing.T) (*cat.Engine, string) {
	t.Helper()
	engine := cat.NewEngine(memory.NewStaticItems(memory.DefaultBank()), memory.NewSessionStore(time.Hour))
	sid, err := engine.StartSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sid)
	return engine, sid
}

func TestRaschProbability(t *testing.T) {
	require.InDelta(t, 0.5, cat.Probability(0, 0), 1e-9)
	require.InDelta(t, 1/(1+math.Exp(-1)), cat.Probability(1, 0), 1e-9)
	require.InDelta(t, -2.0, cat.Logit(1), 1e-9)
	require.InDelta(t, 2.0, cat.Logit(10), 1e-9)
}

func TestNextItemClosestToTheta(t *testing.T) {
	ctx := context.Background()
	engine, sid := newEngine(t)

	// theta 0 sits between difficulty 5 (-0.22) and 6 (+0.22); ties go to the easier item.
	item, err := engine.NextItem(ctx, sid, domain.BlockCareer)
	require.NoError(t, err)
	require.Equal(t, "c2", item.ID)

	_, err = engine.NextItem(ctx, "missing", domain.BlockCareer)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = engine.NextItem(ctx, sid, "sports")
	require.ErrorIs(t, err, domain.ErrInvalidBlock)
}

func TestSubmitUpdatesThetaAndSubscores(t *testing.T) {
	ctx := context.Background()
	engine, sid := newEngine(t)

	res, err := engine.SubmitResponse(ctx, sid, domain.BlockCareer, "c2", domain.ResponsePayload{Answer: "Acknowledge and invite feedback"})
	require.NoError(t, err)
	want := 0.8 * (1 - cat.Probability(0, cat.Logit(5)))
	require.InDelta(t, want, res.UpdatedTheta, 1e-9)

	dup, err := engine.SubmitResponse(ctx, sid, domain.BlockCareer, "c2", domain.ResponsePayload{Answer: "Move discussion forward"})
	require.NoError(t, err)
	require.InDelta(t, res.UpdatedTheta, dup.UpdatedTheta, 1e-12)

	scores, err := engine.Finalize(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 1.5, scores[domain.TraitTeamwork])
	require.Equal(t, 1.2, scores[domain.TraitEmpathy])
	require.Equal(t, 1.3, scores[domain.TraitCommunication])
	require.Equal(t, 0.0, scores[domain.TraitLogic])

	next, err := engine.NextItem(ctx, sid, domain.BlockCareer)
	require.NoError(t, err)
	require.NotEqual(t, "c2", next.ID)
}

func TestBlockExhaustionRecommendsNextBlock(t *testing.T) {
	ctx := context.Background()
	engine, sid := newEngine(t)

	var last domain.SubmitResult
	for i := 0; i < 3; i++ {
		item, err := engine.NextItem(ctx, sid, domain.BlockCareer)
		require.NoError(t, err)
		last, err = engine.SubmitResponse(ctx, sid, domain.BlockCareer, item.ID, domain.ResponsePayload{})
		require.NoError(t, err)
	}
	require.Equal(t, "academic", last.NextRecommendedBlock)

	_, err := engine.NextItem(ctx, sid, domain.BlockCareer)
	require.ErrorIs(t, err, domain.ErrNoItems)
}

func TestAcademicRoutingSkipsEasiestItem(t *testing.T) {
	ctx := context.Background()
	engine, sid := newEngine(t)
	long := strings.Repeat("x", 200)

	// Two full-credit texts push theta above 0.8.
	_, err := engine.SubmitResponse(ctx, sid, domain.BlockAcademic, "a2", domain.ResponsePayload{Answer: long})
	require.NoError(t, err)
	res, err := engine.SubmitResponse(ctx, sid, domain.BlockAcademic, "a3", domain.ResponsePayload{Answer: long})
	require.NoError(t, err)
	require.Greater(t, res.UpdatedTheta, 0.8)
	require.Equal(t, "cognitive", res.NextRecommendedBlock)

	_, err = engine.NextItem(ctx, sid, domain.BlockAcademic)
	require.ErrorIs(t, err, domain.ErrNoItems)

	scores, err := engine.Finalize(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 3.2, scores[domain.TraitCreativity])
}

func TestItemScore(t *testing.T) {
	mcq := domain.Item{Type: domain.ItemMCQ, Options: []string{"a", "b"}, CorrectIndex: 1}
	require.Equal(t, 1.0, cat.ItemScore(mcq, domain.ResponsePayload{Answer: "b"}))
	require.Equal(t, 0.0, cat.ItemScore(mcq, domain.ResponsePayload{Answer: "a"}))

	text := domain.Item{Type: domain.ItemText}
	require.InDelta(t, 0.5, cat.ItemScore(text, domain.ResponsePayload{Answer: "  " + strings.Repeat("y", 60) + " "}), 1e-9)

	video := domain.Item{Type: domain.ItemVideo}
	require.Equal(t, 0.2, cat.ItemScore(video, domain.ResponsePayload{}))
	require.Equal(t, 0.7, cat.ItemScore(video, domain.ResponsePayload{Sentiment: []domain.SentimentScore{{Label: "positive", Score: 0.7}}}))
}

func TestFinalizeUnknownSessionIsZero(t *testing.T) {
	engine, _ := newEngine(t)
	scores, err := engine.Finalize(context.Background(), "nope")
	require.NoError(t, err)
	require.Len(t, scores, 5)
	for _, v := range scores {
		require.Zero(t, v)
	}
}
