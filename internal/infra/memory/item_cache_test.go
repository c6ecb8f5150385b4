package memory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"pathfinder-service/internal/domain"
)

func TestItemCacheCaches(t *testing.T) {
	loader := &countingLoader{ItemLoader: NewStaticItems(DefaultBank())}
	cache := NewItemCache(loader, time.Minute)

	first, err := cache.ListItems(context.Background(), domain.BlockCareer)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	second, err := cache.ListItems(context.Background(), domain.BlockCareer)
	if err != nil {
		t.Fatalf("list items 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical listings, got %v and %v", first, second)
	}
}

func TestItemCacheExpiresAndInvalidates(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loader := &countingLoader{ItemLoader: NewStaticItems(DefaultBank())}
	cache := NewItemCacheWithClock(loader, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	_, _ = cache.ListItems(ctx, domain.BlockAcademic)
	now = now.Add(2 * time.Minute)
	_, _ = cache.ListItems(ctx, domain.BlockAcademic)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, got %d", loader.calls)
	}

	cache.Invalidate(ctx, domain.BlockAcademic)
	_, _ = cache.ListItems(ctx, domain.BlockAcademic)
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, got %d", loader.calls)
	}
}

func TestItemCacheDropsLoadRacingInvalidate(t *testing.T) {
	loader := newGatedLoader("old")
	cache := NewItemCache(loader, time.Minute)
	ctx := context.Background()

	done := make(chan []domain.Item)
	go func() {
		items, _ := cache.ListItems(ctx, domain.BlockCareer)
		done <- items
	}()

	<-loader.started
	loader.set("new")
	cache.Invalidate(ctx, domain.BlockCareer)
	close(loader.release)
	if inflight := <-done; len(inflight) != 1 || inflight[0].ID != "old" {
		t.Fatalf("expected in-flight caller to get its own load, got %v", inflight)
	}

	items, err := cache.ListItems(ctx, domain.BlockCareer)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].ID != "new" {
		t.Fatalf("expected list written after invalidate, got %v", items)
	}
}

func TestItemCacheDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	cache := NewItemCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.ListItems(context.Background(), domain.BlockCareer); err == nil {
			t.Fatalf("expected loader error")
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected every call to reach the loader, got %d", loader.calls)
	}
}

func TestItemCacheReturnsCopies(t *testing.T) {
	cache := NewItemCache(NewStaticItems(DefaultBank()), time.Minute)
	items, _ := cache.ListItems(context.Background(), domain.BlockCareer)
	items[0].Options[0] = "mutated"

	again, _ := cache.ListItems(context.Background(), domain.BlockCareer)
	if again[0].Options[0] == "mutated" {
		t.Fatalf("cached items must not alias callers")
	}
}

func TestStaticItemsOrderedByDifficulty(t *testing.T) {
	items, _ := NewStaticItems(DefaultBank()).ListItems(context.Background(), domain.BlockAcademic)
	if len(items) != 3 {
		t.Fatalf("expected 3 academic items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Difficulty > items[i].Difficulty {
			t.Fatalf("items out of order: %v", items)
		}
	}
}

type countingLoader struct {
	ItemLoader
	err error

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.ItemLoader.ListItems(ctx, block)
}

// gatedLoader reads its version, then blocks its first call until released.
type gatedLoader struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	version string
	gated   bool
}

func newGatedLoader(version string) *gatedLoader {
	return &gatedLoader{started: make(chan struct{}), release: make(chan struct{}), version: version, gated: true}
}

func (l *gatedLoader) set(version string) {
	l.mu.Lock()
	l.version = version
	l.mu.Unlock()
}

func (l *gatedLoader) ListItems(_ context.Context, block domain.Block) ([]domain.Item, error) {
	l.mu.Lock()
	version, gated := l.version, l.gated
	l.gated = false
	l.mu.Unlock()
	if gated {
		close(l.started)
		<-l.release
	}
	return []domain.Item{{ID: version, Type: domain.ItemText, Prompt: "p", Difficulty: 1, Block: block}}, nil
}
