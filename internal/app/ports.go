package app

import (
	"context"

	"pathfinder-service/internal/domain"
)

// ContentSource lists a block's items in ascending difficulty.
type ContentSource interface {
	ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error)
}

// QuestionStore is the admin-facing CRUD surface over question content.
type QuestionStore interface {
	ContentSource
	ListAll(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, id string) (domain.Item, error)
	Create(ctx context.Context, item domain.Item) (domain.Item, error)
	Update(ctx context.Context, item domain.Item) (domain.Item, error)
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops cached item lists after content changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, block domain.Block)
}

// AdaptiveService selects items and records responses for a session.
// Callers treat every error as "adaptive stream exhausted".
type AdaptiveService interface {
	NextItem(ctx context.Context, sessionID string, block domain.Block) (domain.Item, error)
	SubmitResponse(ctx context.Context, sessionID string, block domain.Block, itemID string, payload domain.ResponsePayload) (domain.SubmitResult, error)
}

// SessionStarter opens an adaptive session before an attempt begins.
type SessionStarter interface {
	StartSession(ctx context.Context) (string, error)
}

// Recommender maps normalized trait scores to careers and majors.
type Recommender interface {
	Recommend(ctx context.Context, scores map[domain.Trait]float64) (domain.Recommendations, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// SentimentAnalyzer classifies a transcript.
type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, text string) ([]domain.SentimentScore, error)
}

// Recording is a finalized capture blob.
type Recording struct {
	ID          string
	URL         string
	ContentType string
	Data        []byte
}

// MediaDevice grants access to a recorder. Open fails when permission is refused.
type MediaDevice interface {
	Open(ctx context.Context, kind domain.ItemType) (Recorder, error)
}

// Recorder is one live hardware stream.
type Recorder interface {
	Stop(ctx context.Context) (Recording, error)
	// Release frees the underlying stream. It must be safe to call more than once.
	Release()
}
