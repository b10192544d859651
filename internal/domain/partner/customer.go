package partner

import (
	"context"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a tenant-scoped buyer with a loyalty point balance.
// The balance is backed by the append-only loyalty ledger: summing a
// customer's LoyaltyTransaction rows always equals LoyaltyPoints.
type Customer struct {
	shared.TenantAggregateRoot
	Name           string          `gorm:"size:200;not null"`
	Email          string          `gorm:"size:255"`
	Phone          string          `gorm:"size:50"`
	LoyaltyPoints  int64           `gorm:"not null;default:0"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer for a tenant
func NewCustomer(tenantID uuid.UUID, name, email, phone string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Email:               email,
		Phone:               phone,
		TotalPurchases:      decimal.Zero,
	}, nil
}

// CanRedeem reports whether the balance covers the requested points
func (c *Customer) CanRedeem(points int64) bool {
	return c.LoyaltyPoints >= points
}

// applyPoints adjusts the balance by a signed delta
func (c *Customer) applyPoints(delta int64) {
	c.LoyaltyPoints += delta
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RecordPurchase adds a sale total to the lifetime purchase counter
func (c *Customer) RecordPurchase(total decimal.Decimal) {
	c.TotalPurchases = c.TotalPurchases.Add(total)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// ReversePurchase removes a cancelled sale total from the counter
func (c *Customer) ReversePurchase(total decimal.Decimal) {
	c.TotalPurchases = c.TotalPurchases.Sub(total)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// CustomerRepository provides tenant-scoped access to customers
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
