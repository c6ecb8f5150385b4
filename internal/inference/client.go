// Package inference talks to hosted sentiment and speech-to-text models.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pathfinder-service/internal/domain"
)

const (
	DefaultSentimentURL  = "https://api-inference.huggingface.co/models/cardiffnlp/twitter-roberta-base-sentiment"
	DefaultTranscribeURL = "https://api-inference.huggingface.co/models/openai/whisper-small"
)

var labels = map[string]string{
	"LABEL_0": "NEGATIVE",
	"LABEL_1": "NEUTRAL",
	"LABEL_2": "POSITIVE",
}

type Config struct {
	Token         string
	SentimentURL  string
	TranscribeURL string
	Timeout       time.Duration
}

type Client struct {
	http          *resty.Client
	sentimentURL  string
	transcribeURL string
}

func NewClient(cfg Config) *Client {
	if cfg.SentimentURL == "" {
		cfg.SentimentURL = DefaultSentimentURL
	}
	if cfg.TranscribeURL == "" {
		cfg.TranscribeURL = DefaultTranscribeURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{http: client, sentimentURL: cfg.SentimentURL, transcribeURL: cfg.TranscribeURL}
}

// Sentiment classifies text. The model may answer with a nested or a flat list.
func (c *Client) Sentiment(ctx context.Context, text string) ([]domain.SentimentScore, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"inputs": text}).
		Post(c.sentimentURL)
	if err != nil {
		return nil, fmt.Errorf("sentiment request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sentiment: status %d", resp.StatusCode())
	}

	var scores []domain.SentimentScore
	var nested [][]domain.SentimentScore
	if err := json.Unmarshal(resp.Body(), &nested); err == nil {
		if len(nested) > 0 {
			scores = nested[0]
		}
	} else if err := json.Unmarshal(resp.Body(), &scores); err != nil {
		return nil, fmt.Errorf("decode sentiment: %w", err)
	}

	out := make([]domain.SentimentScore, len(scores))
	for i, s := range scores {
		label := strings.ToUpper(s.Label)
		if mapped, ok := labels[label]; ok {
			label = mapped
		}
		out[i] = domain.SentimentScore{Label: label, Score: s.Score}
	}
	return out, nil
}

// Transcribe posts raw audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(audio).
		Post(c.transcribeURL)
	if err != nil {
		return "", fmt.Errorf("transcribe request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcribe: status %d", resp.StatusCode())
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return body.Text, nil
}
