// Package adaptive is the HTTP client for the adaptive scoring and
// recommendation endpoints.
package adaptive

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
	PathStartSession    = "/api/session/start"
	PathNextItem        = "/api/cat/next"
	PathSubmit          = "/api/cat/submit"
	PathFinalize        = "/api/assessment/finalize"
	PathRecommendations = "/api/recommendations"
)

// StatusError reports a non-2xx reply.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("adaptive %s: status %d: %s", e.Path, e.Status, e.Body)
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: client}
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

type NextItemRequest struct {
	SessionID string       `json:"session_id"`
	Block     domain.Block `json:"block"`
}

type NextItemResponse struct {
	Item domain.Item `json:"item"`
}

type SubmitRequest struct {
	SessionID string                 `json:"session_id"`
	Block     domain.Block           `json:"block"`
	ItemID    string                 `json:"item_id"`
	Response  domain.ResponsePayload `json:"response"`
}

type FinalizeRequest struct {
	SessionID string `json:"session_id"`
}

type FinalizeResponse struct {
	Subscores map[domain.Trait]float64 `json:"subscores"`
}

type RecommendRequest struct {
	Subscores map[domain.Trait]float64 `json:"subscores"`
}

func (c *Client) StartSession(ctx context.Context) (string, error) {
	var out StartSessionResponse
	if err := c.post(ctx, PathStartSession, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("adaptive %s: empty session id", PathStartSession)
	}
	return out.SessionID, nil
}

func (c *Client) NextItem(ctx context.Context, sessionID string, block domain.Block) (domain.Item, error) {
	var out NextItemResponse
	if err := c.post(ctx, PathNextItem, NextItemRequest{SessionID: sessionID, Block: block}, &out); err != nil {
		return domain.Item{}, err
	}
	if out.Item.ID == "" {
		return domain.Item{}, domain.ErrNoItems
	}
	if out.Item.Block == "" {
		out.Item.Block = block
	}
	return out.Item, nil
}

func (c *Client) SubmitResponse(ctx context.Context, sessionID string, block domain.Block, itemID string, payload domain.ResponsePayload) (domain.SubmitResult, error) {
	var out domain.SubmitResult
	err := c.post(ctx, PathSubmit, SubmitRequest{SessionID: sessionID, Block: block, ItemID: itemID, Response: payload}, &out)
	return out, err
}

func (c *Client) Finalize(ctx context.Context, sessionID string) (map[domain.Trait]float64, error) {
	var out FinalizeResponse
	if err := c.post(ctx, PathFinalize, FinalizeRequest{SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return out.Subscores, nil
}

func (c *Client) Recommend(ctx context.Context, scores map[domain.Trait]float64) (domain.Recommendations, error) {
	var out domain.Recommendations
	err := c.post(ctx, PathRecommendations, RecommendRequest{Subscores: scores}, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("adaptive %s: %w", path, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &StatusError{Path: path, Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("adaptive %s: decode: %w", path, err)
	}
	return nil
}
