package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSessionNotFound is returned when an adaptive session has not been started.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrItemNotFound indicates an unknown question id.
	ErrItemNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option that the item does not offer.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoItems is returned when a block has nothing left to present.
	ErrNoItems = errors.New("no items available")
	// ErrInvalidBlock indicates an unknown block name.
	ErrInvalidBlock = errors.New("invalid block")
	// ErrAnswerTypeMismatch is returned when an answer kind does not fit the current item.
	ErrAnswerTypeMismatch = errors.New("answer does not match question type")
	// ErrAnswerInvalid is returned when advancing before the answer is acceptable.
	ErrAnswerInvalid = errors.New("answer is not ready to submit")
	// ErrNotPresenting is returned when an answer arrives while no item is shown.
	ErrNotPresenting = errors.New("no question is being presented")
	// ErrPhaseOrder is returned on out-of-order phase completion.
	ErrPhaseOrder = errors.New("assessment phase out of order")
	// ErrCaptureState is returned for capture actions invalid in the current state.
	ErrCaptureState = errors.New("capture action not allowed in current state")
	// ErrPermissionDenied indicates the media device refused access.
	ErrPermissionDenied = errors.New("media permission denied")
	// ErrGameState is returned for game actions invalid in the current state.
	ErrGameState = errors.New("game action not allowed in current state")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates valid credentials without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidQuestion wraps question validation failures.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrItemExists is returned when creating a question with a taken id.
	ErrItemExists = errors.New("question already exists")
	// ErrClosed is returned for calls on a torn-down component.
	ErrClosed = errors.New("component closed")
)

// ValidationError lists per-field problems. It unwraps to ErrInvalidQuestion.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid question: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuestion
}
