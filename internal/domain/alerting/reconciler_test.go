package alerting

import (
	"context"
	"testing"

	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAlertRepository is a mock implementation of AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindOpenByRelated(ctx context.Context, tenantID, relatedID uuid.UUID, alertType AlertType) (*Alert, error) {
	args := m.Called(ctx, tenantID, relatedID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Alert), args.Error(1)
}

func (m *MockAlertRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Alert, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]Alert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func productWithStock(t *testing.T, stock, minStock int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(uuid.New(), "Widget", "SKU-1",
		decimal.NewFromInt(50), decimal.NewFromInt(stock), decimal.NewFromInt(minStock))
	require.NoError(t, err)
	return p
}

func TestReconcile_LowStock_OpensAlert(t *testing.T) {
	product := productWithStock(t, 2, 5)
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *Alert) bool {
		return a.Priority == PriorityHigh && a.RelatedID == product.ID && !a.IsResolved
	})).Return(nil)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReconcile_LowStock_Idempotent(t *testing.T) {
	product := productWithStock(t, 2, 5)
	open := NewAlert(product.TenantID, product.ID, TypeLowStock, PriorityHigh, LowStockTitle(product.Name))
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(open, nil)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	// No Save: the open alert is left alone.
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReconcile_OutOfStock_OpensCritical(t *testing.T) {
	product := productWithStock(t, 0, 5)
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *Alert) bool {
		return a.Priority == PriorityCritical
	})).Return(nil)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReconcile_OutOfStock_EscalatesExisting(t *testing.T) {
	product := productWithStock(t, 0, 5)
	open := NewAlert(product.TenantID, product.ID, TypeLowStock, PriorityHigh, LowStockTitle(product.Name))
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(open, nil)
	repo.On("Save", mock.Anything, open).Return(nil)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, open.Priority)
	assert.False(t, open.IsResolved)
}

func TestReconcile_BackInStock_ResolvesAlert(t *testing.T) {
	product := productWithStock(t, 10, 5)
	open := NewAlert(product.TenantID, product.ID, TypeLowStock, PriorityHigh, LowStockTitle(product.Name))
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(open, nil)
	repo.On("Save", mock.Anything, open).Return(nil)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	assert.True(t, open.IsResolved)
	require.NotNil(t, open.ResolvedAt)
}

func TestReconcile_InStock_NoOpenAlert_NoOp(t *testing.T) {
	product := productWithStock(t, 10, 5)
	repo := new(MockAlertRepository)
	repo.On("FindOpenByRelated", mock.Anything, product.TenantID, product.ID, TypeLowStock).
		Return(nil, shared.ErrNotFound)

	err := NewReconciler(repo).Reconcile(context.Background(), product)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAlert_Resolve_Twice(t *testing.T) {
	a := NewAlert(uuid.New(), uuid.New(), TypeLowStock, PriorityHigh, "Low stock: Widget")
	a.Resolve()
	first := *a.ResolvedAt

	a.Resolve()
	assert.Equal(t, first, *a.ResolvedAt)
}
