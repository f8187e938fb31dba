package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/internal/metrics"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
	"github.com/lelekart/variantmatrix/pkg/pagination"
)

func TestListVariants(t *testing.T) {
	repo := new(mockVariantRepository)
	svc := NewVariantService(repo, nil, newTestLogger())
	ctx := context.Background()

	page := []domain.ProductVariant{{ID: "v-3", SKU: "T-3"}}
	repo.On("ListByProduct", ctx, testProductID, 2, 2).Return(page, 5, nil)

	variants, total, err := svc.ListVariants(ctx, testProductID, pagination.Params{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, page, variants)
	assert.Equal(t, 5, total)
	repo.AssertExpectations(t)
}

func TestListVariants_Errors(t *testing.T) {
	repo := new(mockVariantRepository)
	svc := NewVariantService(repo, nil, newTestLogger())
	ctx := context.Background()

	_, _, err := svc.ListVariants(ctx, "", pagination.DefaultParams())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	repo.On("ListByProduct", ctx, testProductID, 20, 0).Return(nil, 0, errors.New("timeout"))
	_, _, err = svc.ListVariants(ctx, testProductID, pagination.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list variants")
}

func TestHandleProductDeleted(t *testing.T) {
	repo := new(mockVariantRepository)
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	svc := NewVariantService(repo, m, newTestLogger())
	ctx := context.Background()

	repo.On("DeleteByProduct", ctx, testProductID).Return(int64(3), nil)

	removed, err := svc.HandleProductDeleted(ctx, testProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	repo.AssertExpectations(t)
}

func TestHandleProductDeleted_Error(t *testing.T) {
	repo := new(mockVariantRepository)
	svc := NewVariantService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("DeleteByProduct", ctx, testProductID).Return(int64(0), errors.New("db down"))

	_, err := svc.HandleProductDeleted(ctx, testProductID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), testProductID)
	repo.AssertCalled(t, "DeleteByProduct", mock.Anything, testProductID)
}
