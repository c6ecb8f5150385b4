package domain

import (
	"encoding/json"
	"time"
)

// AnswerKind tags the Answer union.
type AnswerKind string

const (
	AnswerChoice AnswerKind = "choice"
	AnswerText   AnswerKind = "text"
	AnswerMedia  AnswerKind = "media"
)

// Answer is one of ChoiceAnswer, TextAnswer or MediaAnswer.
type Answer interface {
	Kind() AnswerKind
	// Accepts reports whether the answer can respond to items of type t.
	Accepts(t ItemType) bool
}

// ChoiceAnswer is a selected multiple-choice option.
type ChoiceAnswer struct {
	Option string `json:"option"`
}

func (ChoiceAnswer) Kind() AnswerKind { return AnswerChoice }

func (ChoiceAnswer) Accepts(t ItemType) bool { return t == ItemMCQ }

// TextAnswer is a free-text response.
type TextAnswer struct {
	Text string `json:"text"`
}

func (TextAnswer) Kind() AnswerKind { return AnswerText }

func (TextAnswer) Accepts(t ItemType) bool { return t == ItemText }

// MediaAnswer is a finished audio or video capture.
type MediaAnswer struct {
	MediaURL string `json:"mediaUrl"`
	// Duration is the recorded length in whole seconds.
	Duration   int              `json:"duration"`
	Timestamp  time.Time        `json:"timestamp"`
	Transcript *string          `json:"transcript"`
	Sentiment  []SentimentScore `json:"sentiment"`
}

func (MediaAnswer) Kind() AnswerKind { return AnswerMedia }

func (MediaAnswer) Accepts(t ItemType) bool { return t.IsMedia() }

// ResponsePayload is the "response" object sent to the adaptive service.
type ResponsePayload struct {
	Answer     string           `json:"answer,omitempty"`
	MediaURL   string           `json:"mediaUrl,omitempty"`
	Duration   int              `json:"duration,omitempty"`
	Timestamp  int64            `json:"timestamp,omitempty"`
	Transcript *string          `json:"transcript,omitempty"`
	Sentiment  []SentimentScore `json:"sentiment,omitempty"`
}

// PayloadFromAnswer flattens an answer into its wire payload.
func PayloadFromAnswer(a Answer) ResponsePayload {
	switch v := a.(type) {
	case ChoiceAnswer:
		return ResponsePayload{Answer: v.Option}
	case TextAnswer:
		return ResponsePayload{Answer: v.Text}
	case MediaAnswer:
		return ResponsePayload{
			MediaURL:   v.MediaURL,
			Duration:   v.Duration,
			Timestamp:  v.Timestamp.UnixMilli(),
			Transcript: v.Transcript,
			Sentiment:  v.Sentiment,
		}
	default:
		return ResponsePayload{}
	}
}

// MarshalJSON renders the answer with its kind so records stay self-describing.
func (r AnswerRecord) MarshalJSON() ([]byte, error) {
	type wire struct {
		ItemID    string     `json:"questionId"`
		Type      ItemType   `json:"type"`
		Kind      AnswerKind `json:"kind,omitempty"`
		Answer    any        `json:"answer,omitempty"`
		Timestamp int64      `json:"timestamp"`
	}
	out := wire{ItemID: r.ItemID, Type: r.Type, Timestamp: r.CapturedAt.UnixMilli()}
	if r.Answer != nil {
		out.Kind = r.Answer.Kind()
		switch v := r.Answer.(type) {
		case ChoiceAnswer:
			out.Answer = v.Option
		case TextAnswer:
			out.Answer = v.Text
		default:
			out.Answer = v
		}
	}
	return json.Marshal(out)
}
