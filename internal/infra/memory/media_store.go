package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pathfinder-service/internal/app"
)

const (
	MediaScheme     = "media://"
	DefaultMediaTTL = time.Hour
)

// MediaStore keeps finalized recordings in memory for playback and
// transcription. Recordings expire after the TTL; expired entries are
// swept on every Put.
type MediaStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	blobs map[string]storedMedia
}

type storedMedia struct {
	rec       app.Recording
	expiresAt time.Time
}

func NewMediaStore(ttl time.Duration) *MediaStore {
	return NewMediaStoreWithClock(ttl, time.Now)
}

// NewMediaStoreWithClock is used by tests to control expiry.
func NewMediaStoreWithClock(ttl time.Duration, clock func() time.Time) *MediaStore {
	if ttl <= 0 {
		ttl = DefaultMediaTTL
	}
	return &MediaStore{ttl: ttl, clock: clock, blobs: make(map[string]storedMedia)}
}

// Put stores data and returns the recording with its id and URL.
func (s *MediaStore) Put(contentType string, data []byte) app.Recording {
	id := uuid.NewString()
	rec := app.Recording{
		ID:          id,
		URL:         MediaScheme + id,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
	}
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.blobs {
		if !entry.expiresAt.After(now) {
			delete(s.blobs, key)
		}
	}
	s.blobs[id] = storedMedia{rec: rec, expiresAt: now.Add(s.ttl)}
	return rec
}

func (s *MediaStore) Get(id string) (app.Recording, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.blobs[id]
	if !ok {
		return app.Recording{}, false
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.blobs, id)
		return app.Recording{}, false
	}
	return entry.rec, true
}

func (s *MediaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func (s *MediaStore) Delete(id string) {
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
}
