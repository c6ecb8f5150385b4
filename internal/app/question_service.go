package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pathfinder-service/internal/domain"
)

// QuestionInput is the admin editor payload.
type QuestionInput struct {
	ID           string          `json:"id" validate:"omitempty,max=64"`
	Type         domain.ItemType `json:"type" validate:"required,oneof=mcq text audio video"`
	Question     string          `json:"question" validate:"required,max=2000"`
	Options      []string        `json:"options" validate:"max=6,dive,required,max=500"`
	CorrectIndex int             `json:"correctIndex" validate:"gte=0"`
	Difficulty   int             `json:"difficulty" validate:"min=1,max=10"`
	Block        domain.Block    `json:"block" validate:"required,oneof=career academic"`
}

// QuestionService is the admin use case layer: it validates before any
// write and invalidates cached block lists after writes.
type QuestionService struct {
	store    QuestionStore
	cache    CacheInvalidator
	validate *validator.Validate
	now      func() time.Time
}

func NewQuestionService(store QuestionStore, cache CacheInvalidator) *QuestionService {
	return NewQuestionServiceWithClock(store, cache, time.Now)
}

// NewQuestionServiceWithClock is used by tests for deterministic timestamps.
func NewQuestionServiceWithClock(store QuestionStore, cache CacheInvalidator, now func() time.Time) *QuestionService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &QuestionService{store: store, cache: cache, validate: v, now: now}
}

// List returns every question, or one block's questions when block is set.
func (s *QuestionService) List(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	if block == "" {
		return s.store.ListAll(ctx)
	}
	if !block.Valid() {
		return nil, fmt.Errorf("%q: %w", block, domain.ErrInvalidBlock)
	}
	return s.store.ListItems(ctx, block)
}

func (s *QuestionService) Get(ctx context.Context, id string) (domain.Item, error) {
	return s.store.Get(ctx, id)
}

func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (domain.Item, error) {
	item, err := s.toItem(in)
	if err != nil {
		return domain.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.store.Create(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	s.invalidate(ctx, created.Block)
	return created, nil
}

func (s *QuestionService) Update(ctx context.Context, id string, in QuestionInput) (domain.Item, error) {
	in.ID = id
	item, err := s.toItem(in)
	if err != nil {
		return domain.Item{}, err
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now().UTC()

	updated, err := s.store.Update(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	s.invalidate(ctx, existing.Block)
	if updated.Block != existing.Block {
		s.invalidate(ctx, updated.Block)
	}
	return updated, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, existing.Block)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context, block domain.Block) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, block)
	}
}

// toItem normalizes and validates the input. Options are trimmed, and
// dropped entirely for non-multiple-choice types.
func (s *QuestionService) toItem(in QuestionInput) (domain.Item, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Question = strings.TrimSpace(in.Question)
	if in.Type != domain.ItemMCQ {
		in.Options = nil
		in.CorrectIndex = 0
	} else {
		opts := make([]string, len(in.Options))
		for i, o := range in.Options {
			opts[i] = strings.TrimSpace(o)
		}
		in.Options = opts
	}

	fields := map[string]string{}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Item{}, fmt.Errorf("validate question: %w", err)
		}
		for _, fe := range verrs {
			fields[fieldKey(fe)] = fieldMessage(fe)
		}
	}
	if in.Type == domain.ItemMCQ {
		if len(in.Options) < domain.MinOptions {
			fields["options"] = "MCQ questions must have at least 2 options"
		} else if in.CorrectIndex >= len(in.Options) {
			fields["correctIndex"] = "must reference one of the options"
		}
	}
	if len(fields) > 0 {
		return domain.Item{}, &domain.ValidationError{Fields: fields}
	}

	return domain.Item{
		ID:           in.ID,
		Type:         in.Type,
		Prompt:       in.Question,
		Options:      in.Options,
		CorrectIndex: in.CorrectIndex,
		Difficulty:   in.Difficulty,
		Block:        in.Block,
	}, nil
}

func fieldKey(fe validator.FieldError) string {
	// Namespace is "QuestionInput.options[1]"; drop the struct name.
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
