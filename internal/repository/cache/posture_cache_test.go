package cache

import (
	"context"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"alcyxob/therapy-app/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	repository.PostureRepository
	gets  int
	lists int
}

func (c *countingRepo) GetByID(ctx context.Context, id string) (*domain.Posture, error) {
	c.gets++
	return c.PostureRepository.GetByID(ctx, id)
}

func (c *countingRepo) List(ctx context.Context, t domain.TherapyType) ([]domain.Posture, error) {
	c.lists++
	return c.PostureRepository.List(ctx, t)
}

func TestPostureCache_GetByID(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepo{PostureRepository: memory.NewPostureStore(memory.DefaultPostures())}
	c := NewPostureCache(backing, 0, time.Minute)

	for i := 0; i < 3; i++ {
		p, err := c.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Postura del niño", p.DisplayName)
		assert.Equal(t, []string{"anxiety", "back_pain"}, p.TherapyTypes)
	}
	assert.Equal(t, 1, backing.gets)

	hits, misses := c.Stats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 1, misses)
}

func TestPostureCache_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepo{PostureRepository: memory.NewPostureStore(nil)}
	c := NewPostureCache(backing, 0, time.Minute)

	_, err := c.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = c.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 2, backing.gets)
}

func TestPostureCache_ListKeyedByTherapy(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepo{PostureRepository: memory.NewPostureStore(memory.DefaultPostures())}
	c := NewPostureCache(backing, 0, time.Minute)

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	arthritis, err := c.List(ctx, domain.TherapyArthritis)
	require.NoError(t, err)
	assert.Len(t, arthritis, 1)
	_, err = c.List(ctx, domain.TherapyArthritis)
	require.NoError(t, err)

	assert.Equal(t, 2, backing.lists)
}
