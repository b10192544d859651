package catalog

import (
	"context"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatus is the derived availability state of a product
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// StatusFor derives the stock status from the current balance and the
// minimum threshold: out_of_stock when empty, low_stock when at or below
// the threshold, in_stock otherwise. Every mutator of CurrentStock keeps
// Status consistent through this function.
func StatusFor(currentStock, minStock decimal.Decimal) StockStatus {
	switch {
	case currentStock.LessThanOrEqual(decimal.Zero):
		return StatusOutOfStock
	case currentStock.LessThanOrEqual(minStock):
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Product is a sellable item with tracked stock
type Product struct {
	shared.TenantAggregateRoot
	Name         string          `gorm:"size:200;not null"`
	// SKU is unique per tenant; the schema enforces it with a composite index.
	SKU          string          `gorm:"size:50;not null;index"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status       StockStatus     `gorm:"size:20;not null;default:'in_stock'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product for a tenant
func NewProduct(tenantID uuid.UUID, name, sku string, price, initialStock, minStock decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if initialStock.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial stock cannot be negative")
	}
	if minStock.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}

	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		SKU:                 sku,
		Price:               price,
		CurrentStock:        initialStock,
		MinStock:            minStock,
	}
	p.Status = StatusFor(p.CurrentStock, p.MinStock)
	return p, nil
}

// CanFulfill reports whether the current stock covers the requested quantity
func (p *Product) CanFulfill(quantity decimal.Decimal) bool {
	return p.CurrentStock.GreaterThanOrEqual(quantity)
}

// DecreaseStock removes quantity from stock. Fails with ErrInsufficientStock
// when the balance does not cover the request. The availability check and
// the decrement are only safe together inside a serializable transaction.
func (p *Product) DecreaseStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !p.CanFulfill(quantity) {
		return shared.ErrInsufficientStock
	}
	p.CurrentStock = p.CurrentStock.Sub(quantity)
	p.refresh()
	return nil
}

// IncreaseStock returns quantity to stock (cancellation, return)
func (p *Product) IncreaseStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.CurrentStock = p.CurrentStock.Add(quantity)
	p.refresh()
	return nil
}

func (p *Product) refresh() {
	p.Status = StatusFor(p.CurrentStock, p.MinStock)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// ProductRepository provides tenant-scoped access to products
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
}
