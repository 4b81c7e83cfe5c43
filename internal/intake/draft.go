package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "grocerly:draft:"

var ErrDraftNotFound = errors.New("application draft not found or expired")

// Draft is a wizard session in progress. Completed counts how many steps,
// in order, have passed validation.
type Draft struct {
	Token     string    `json:"token"`
	Completed int       `json:"completed"`
	Form      Form      `json:"form"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDraft(token string) *Draft {
	now := time.Now().UTC()
	return &Draft{Token: token, CreatedAt: now, UpdatedAt: now}
}

// CurrentStep is the first step not yet completed, or review once all are.
func (d *Draft) CurrentStep() Step {
	if d.Completed >= len(Steps) {
		return StepReview
	}
	return Steps[d.Completed]
}

func (d *Draft) Ready() bool {
	return d.Completed >= len(Steps)
}

type DraftStore interface {
	Save(ctx context.Context, d *Draft) error
	Load(ctx context.Context, token string) (*Draft, error)
	Delete(ctx context.Context, token string) error
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore keeps drafts in redis; every save refreshes the TTL.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, draftKeyPrefix+d.Token, data, s.ttl).Err(); err != nil {
		logger.Error("Failed to save application draft", err)
		return err
	}
	return nil
}

func (s *redisDraftStore) Load(ctx context.Context, token string) (*Draft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		logger.Error("Failed to load application draft", err)
		return nil, err
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Warn("Discarding corrupt application draft", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ErrDraftNotFound
	}
	return &d, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, draftKeyPrefix+token).Err()
}

type memoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryDraftStore is the single-instance fallback when redis is not configured.
func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	return &memoryDraftStore{ttl: ttl, drafts: make(map[string]memoryEntry)}
}

func (s *memoryDraftStore) Save(_ context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
	s.drafts[d.Token] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

// sweep drops expired drafts that were never loaded again. Callers hold mu.
func (s *memoryDraftStore) sweep(now time.Time) {
	for token, entry := range s.drafts {
		if now.After(entry.expiresAt) {
			delete(s.drafts, token)
		}
	}
}

func (s *memoryDraftStore) Load(_ context.Context, token string) (*Draft, error) {
	s.mu.Lock()
	entry, ok := s.drafts[token]
	if ok && time.Now().After(entry.expiresAt) {
		delete(s.drafts, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}

	var d Draft
	if err := json.Unmarshal(entry.data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *memoryDraftStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, token)
	return nil
}
