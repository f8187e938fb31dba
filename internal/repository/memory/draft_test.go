package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lelekart/variantmatrix/internal/domain"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newRepo(ttl time.Duration) (*DraftRepository, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	r := NewDraftRepository(ttl)
	r.now = clock.Now
	return r, clock
}

func TestDraftRepository_IsolatesCallers(t *testing.T) {
	repo, _ := newRepo(time.Hour)
	ctx := context.Background()

	d := &domain.Draft{
		ID:         "d-1",
		Attributes: []domain.Attribute{{Name: "Color", Values: []string{"Red"}}},
	}
	require.NoError(t, repo.Save(ctx, d))
	d.Attributes[0].Values[0] = "mutated"

	got, err := repo.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Red", got.Attributes[0].Values[0])

	got.Attributes[0].Values[0] = "mutated again"
	again, err := repo.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Red", again.Attributes[0].Values[0])
}

func TestDraftRepository_Expiry(t *testing.T) {
	repo, clock := newRepo(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Draft{ID: "old"}))
	clock.t = clock.t.Add(61 * time.Minute)

	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Draft{ID: "new"}))
	assert.Equal(t, 1, repo.Len())
}

func TestDraftRepository_Delete(t *testing.T) {
	repo, _ := newRepo(0)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Draft{ID: "d-1"}))
	require.NoError(t, repo.Delete(ctx, "d-1"))
	require.NoError(t, repo.Delete(ctx, "d-1"))

	_, err := repo.Get(ctx, "d-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, repo.Ping(ctx))
}
