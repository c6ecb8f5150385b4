package memory

import (
	"context"
	"sync"

	"pathfinder-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore.
type QuestionStore struct {
	mu    sync.RWMutex
	items map[string]domain.Item
}

func NewQuestionStore(seed []domain.Item) *QuestionStore {
	s := &QuestionStore{items: make(map[string]domain.Item, len(seed))}
	for _, item := range seed {
		s.items[item.ID] = cloneItem(item)
	}
	return s
}

func (s *QuestionStore) ListItems(_ context.Context, block domain.Block) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterBlock(s.values(), block), nil
}

func (s *QuestionStore) ListAll(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.values()
	SortItems(out)
	return out, nil
}

func (s *QuestionStore) Get(_ context.Context, id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (s *QuestionStore) Create(_ context.Context, item domain.Item) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return domain.Item{}, domain.ErrItemExists
	}
	s.items[item.ID] = cloneItem(item)
	return cloneItem(item), nil
}

func (s *QuestionStore) Update(_ context.Context, item domain.Item) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	s.items[item.ID] = cloneItem(item)
	return cloneItem(item), nil
}

func (s *QuestionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

// values must be called with the lock held.
func (s *QuestionStore) values() []domain.Item {
	out := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, cloneItem(item))
	}
	return out
}
