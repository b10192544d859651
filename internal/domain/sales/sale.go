package sales

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a sale was paid
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentMobile   PaymentMethod = "mobile"
	PaymentTransfer PaymentMethod = "transfer"
)

// IsValid reports whether the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentTransfer:
		return true
	}
	return false
}

// Sale is the persisted point-of-sale transaction aggregate. It is created
// atomically with its line items; cancellation hard-deletes the row after
// the pre-cancellation snapshot is captured in the audit log, keeping the
// fiscal numbering append-only.
type Sale struct {
	shared.TenantAggregateRoot
	// receipt numbers are unique per tenant; the schema enforces it with a composite index
	ReceiptNumber string          `gorm:"size:50;not null;index"`
	SeriesLabel   string          `gorm:"size:10;not null"`
	FiscalNumber  int64           `gorm:"not null"`
	HashCode      string          `gorm:"size:16;not null"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Change        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes         string          `gorm:"size:500"`

	Items    []SaleLineItem    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Customer *partner.Customer `gorm:"foreignKey:CustomerID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleLineItem is one sold product line, owned exclusively by its Sale and
// immutable once created.
type SaleLineItem struct {
	shared.BaseEntity
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleLineItem) TableName() string {
	return "sale_items"
}

// NewSale creates a sale shell; items are added with AddItem and totals set
// with SetAmounts before persisting.
func NewSale(tenantID, userID uuid.UUID, receiptNumber, seriesLabel string, fiscalNumber int64, paymentMethod PaymentMethod) (*Sale, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Receipt number cannot be empty")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", paymentMethod))
	}
	return &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		SeriesLabel:         seriesLabel,
		FiscalNumber:        fiscalNumber,
		UserID:              userID,
		PaymentMethod:       paymentMethod,
		Items:               make([]SaleLineItem, 0),
	}, nil
}

// AddItem appends a line item to the sale
func (s *Sale) AddItem(productID uuid.UUID, quantity, unitPrice, discount decimal.Decimal) (*SaleLineItem, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	item := SaleLineItem{
		BaseEntity: shared.NewBaseEntity(),
		SaleID:     s.ID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Discount:   discount,
		Total:      quantity.Mul(unitPrice).Sub(discount),
	}
	s.Items = append(s.Items, item)
	return &s.Items[len(s.Items)-1], nil
}

// SetAmounts fixes the sale's monetary summary and seals it with the
// tamper-evident hash code.
func (s *Sale) SetAmounts(subtotal, discount, tax, total, amountPaid, change decimal.Decimal) {
	s.Subtotal = subtotal
	s.Discount = discount
	s.Tax = tax
	s.Total = total
	s.AmountPaid = amountPaid
	s.Change = change
	s.HashCode = ComputeHashCode(s.ReceiptNumber, s.CreatedAt, total, s.FiscalNumber)
}

// SetCustomer attaches the buying customer
func (s *Sale) SetCustomer(customerID uuid.UUID) {
	s.CustomerID = &customerID
}

// ItemCount returns the number of line items
func (s *Sale) ItemCount() int {
	return len(s.Items)
}

// ComputeHashCode derives the tamper-evident code for a receipt as a
// truncated SHA-256 over receiptNumber|timestamp|total|sequenceNumber.
func ComputeHashCode(receiptNumber string, timestamp time.Time, total decimal.Decimal, sequenceNumber int64) string {
	payload := fmt.Sprintf("%s|%d|%s|%d", receiptNumber, timestamp.Unix(), total.StringFixed(4), sequenceNumber)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}

// SaleRepository provides tenant-scoped access to sales
type SaleRepository interface {
	// Create persists the sale together with its line items
	Create(ctx context.Context, sale *Sale) error
	// FindByIDForTenant loads the aggregate with items and customer expanded
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// Delete hard-deletes the sale and its items
	Delete(ctx context.Context, sale *Sale) error
}
