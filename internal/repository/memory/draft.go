package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lelekart/variantmatrix/internal/domain"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// DraftRepository keeps drafts in process memory. It is used when Redis is
// not configured and in tests. Stored drafts are deep copies, so callers
// never share state with the store.
type DraftRepository struct {
	mu     sync.RWMutex
	drafts map[string]*domain.Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewDraftRepository creates an empty store whose entries expire after ttl.
// A zero ttl keeps drafts until deleted.
func NewDraftRepository(ttl time.Duration) *DraftRepository {
	return &DraftRepository{
		drafts: make(map[string]*domain.Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *DraftRepository) Get(_ context.Context, id string) (*domain.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drafts[id]
	if !ok || r.expired(d) {
		return nil, apperrors.NotFound("draft", id)
	}
	return d.Clone(), nil
}

func (r *DraftRepository) Save(_ context.Context, draft *domain.Draft) error {
	stored := draft.Clone()
	if r.ttl > 0 {
		stored.ExpiresAt = r.now().Add(r.ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.drafts[draft.ID] = stored
	r.sweepLocked()
	return nil
}

func (r *DraftRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, id)
	return nil
}

func (r *DraftRepository) Ping(context.Context) error { return nil }

// Len returns the number of stored drafts, including expired ones not yet swept.
func (r *DraftRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

func (r *DraftRepository) expired(d *domain.Draft) bool {
	return r.ttl > 0 && !r.now().Before(d.ExpiresAt)
}

func (r *DraftRepository) sweepLocked() {
	for id, d := range r.drafts {
		if r.expired(d) {
			delete(r.drafts, id)
		}
	}
}
