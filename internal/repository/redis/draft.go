package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lelekart/variantmatrix/internal/domain"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

const keyPrefix = "variant-draft:"

// DraftRepository implements repository.DraftRepository using Redis. Each
// draft is a JSON blob whose TTL is refreshed on every save.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository creates a new Redis-backed draft repository.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a draft by id.
func (r *DraftRepository) Get(ctx context.Context, id string) (*domain.Draft, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("draft", id)
		}
		return nil, fmt.Errorf("redis get draft: %w", err)
	}

	var draft domain.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", id, err)
	}

	return &draft, nil
}

// Save writes the draft with the configured TTL.
func (r *DraftRepository) Save(ctx context.Context, draft *domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+draft.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}

	return nil
}

// Delete removes a draft.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del draft: %w", err)
	}

	return nil
}

// Ping checks the Redis connection.
func (r *DraftRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
