package persistence

import (
	"context"
	"errors"

	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSeriesRepository implements SeriesRepository using GORM
type GormSeriesRepository struct {
	db *gorm.DB
}

// NewGormSeriesRepository creates a new GormSeriesRepository
func NewGormSeriesRepository(db *gorm.DB) *GormSeriesRepository {
	return &GormSeriesRepository{db: db}
}

// AllocateNext draws the next fiscal number from the tenant's active series
// under a SELECT ... FOR UPDATE row lock. The lock is held until the
// surrounding transaction commits or rolls back, so two concurrent postings
// can never observe the same counter value. When the tenant has no active
// series yet, one is created starting at zero.
func (r *GormSeriesRepository) AllocateNext(ctx context.Context, tenantID uuid.UUID, prefix string) (*numbering.Allocation, error) {
	var series numbering.DocumentSeries
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND prefix = ? AND is_active = ?", tenantID, prefix, true).
		First(&series).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		created, derr := numbering.NewDocumentSeries(tenantID, prefix, numbering.DefaultSeriesLabel)
		if derr != nil {
			return nil, derr
		}
		// A concurrent first posting may insert the same series; the unique
		// index turns that race into a serialization failure for the loser.
		if cerr := r.db.WithContext(ctx).Create(created).Error; cerr != nil {
			if errors.Is(cerr, gorm.ErrDuplicatedKey) {
				return nil, shared.ErrSequenceContention
			}
			return nil, cerr
		}
		series = *created
	}

	number := series.Allocate()
	if err := r.db.WithContext(ctx).
		Model(&numbering.DocumentSeries{}).
		Where("id = ?", series.ID).
		Updates(map[string]any{
			"last_number": series.LastNumber,
			"version":     series.Version,
			"updated_at":  series.UpdatedAt,
		}).Error; err != nil {
		return nil, err
	}

	return &numbering.Allocation{
		SeriesLabel:   series.Label,
		Number:        number,
		ReceiptNumber: numbering.ReceiptNumber(series.Prefix, series.Label, number),
	}, nil
}

// FindActive returns the active series for the tenant and prefix
func (r *GormSeriesRepository) FindActive(ctx context.Context, tenantID uuid.UUID, prefix string) (*numbering.DocumentSeries, error) {
	var series numbering.DocumentSeries
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND prefix = ? AND is_active = ?", tenantID, prefix, true).
		First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &series, nil
}

// Save persists the series
func (r *GormSeriesRepository) Save(ctx context.Context, series *numbering.DocumentSeries) error {
	return r.db.WithContext(ctx).Save(series).Error
}

var _ numbering.SeriesRepository = (*GormSeriesRepository)(nil)
