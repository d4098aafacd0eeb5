package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type memoryProducts struct {
	byID  map[uuid.UUID]Product
	bySKU map[string]uuid.UUID
}

func newMemoryProducts() *memoryProducts {
	return &memoryProducts{byID: make(map[uuid.UUID]Product), bySKU: make(map[string]uuid.UUID)}
}

func (m *memoryProducts) List(_ context.Context, _ shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryProducts) Get(_ context.Context, id uuid.UUID) (Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryProducts) GetBySKU(_ context.Context, sku string) (Product, error) {
	id, ok := m.bySKU[sku]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memoryProducts) ListBelowReorderLevel(_ context.Context) ([]Product, error) {
	return nil, nil
}

func (m *memoryProducts) Create(_ context.Context, product Product) (Product, error) {
	if _, exists := m.bySKU[product.SKU]; exists {
		return Product{}, shared.ErrDuplicate
	}
	product.ID = uuid.New()
	m.byID[product.ID] = product
	m.bySKU[product.SKU] = product.ID
	return product, nil
}

func (m *memoryProducts) Update(_ context.Context, id uuid.UUID, product Product) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	m.byID[id] = product
	return nil
}

func (m *memoryProducts) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = false
	m.byID[id] = p
	return nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryProducts(), nil)

	_, err := svc.Create(context.Background(), Product{Name: "Widget"})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), Product{SKU: "W-1"})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), Product{
		SKU:       "W-1",
		Name:      "Widget",
		CostPrice: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryProducts(), nil)

	_, err := svc.Create(context.Background(), Product{SKU: "W-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Product{SKU: "W-1", Name: "Other"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeactivateProduct(t *testing.T) {
	repo := newMemoryProducts()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), Product{SKU: "W-1", Name: "Widget"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	require.ErrorIs(t, svc.Deactivate(context.Background(), uuid.New()), shared.ErrNotFound)
}
