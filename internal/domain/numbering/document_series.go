package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultReceiptPrefix is the document prefix used for point-of-sale receipts
// (factura-recibo).
const DefaultReceiptPrefix = "FR"

// DefaultSeriesLabel is the label assigned when a tenant's first series is
// created implicitly on posting.
const DefaultSeriesLabel = "A"

// DocumentSeries is a tenant-scoped counter from which gap-free fiscal
// document numbers are drawn. At most one series is active per
// (tenant, prefix); LastNumber only ever increases and is mutated
// exclusively by the allocator inside the posting transaction, under a
// row-level lock.
type DocumentSeries struct {
	shared.TenantAggregateRoot
	// (tenant, prefix, label) is unique; the schema enforces it with a
	// composite index.
	Prefix     string `gorm:"size:10;not null;index"`
	Label      string `gorm:"size:10;not null"`
	LastNumber int64  `gorm:"not null;default:0"`
	IsActive   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (DocumentSeries) TableName() string {
	return "document_series"
}

// NewDocumentSeries creates a new active series starting at zero
func NewDocumentSeries(tenantID uuid.UUID, prefix, label string) (*DocumentSeries, error) {
	if prefix == "" {
		return nil, shared.NewDomainError("INVALID_PREFIX", "Series prefix cannot be empty")
	}
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "Series label cannot be empty")
	}
	return &DocumentSeries{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Prefix:              prefix,
		Label:               label,
		LastNumber:          0,
		IsActive:            true,
	}, nil
}

// Allocate increments the counter and returns the newly allocated number.
// The caller must hold the row lock for the series.
func (s *DocumentSeries) Allocate() int64 {
	s.LastNumber++
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return s.LastNumber
}

// ReceiptNumber formats a fiscal document number, e.g. "FR A/0001".
func ReceiptNumber(prefix, label string, number int64) string {
	return fmt.Sprintf("%s %s/%04d", prefix, label, number)
}

// Allocation is the result of drawing the next number from a series
type Allocation struct {
	SeriesLabel   string
	Number        int64
	ReceiptNumber string
}

// SeriesRepository provides access to document series.
//
// AllocateNext must execute inside the caller's transaction: it selects the
// active series row for (tenant, prefix) with a locking read that blocks
// concurrent allocators until the holder commits or rolls back, creates the
// series with LastNumber = 0 when none exists, increments the counter and
// persists it. If the surrounding transaction aborts, the allocation rolls
// back with it and no number is burned.
type SeriesRepository interface {
	AllocateNext(ctx context.Context, tenantID uuid.UUID, prefix string) (*Allocation, error)
	FindActive(ctx context.Context, tenantID uuid.UUID, prefix string) (*DocumentSeries, error)
	Save(ctx context.Context, series *DocumentSeries) error
}
