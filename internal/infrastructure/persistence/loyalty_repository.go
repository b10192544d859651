package persistence

import (
	"context"
	"fmt"

	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLoyaltyTransactionRepository implements LoyaltyTransactionRepository
// using GORM. The ledger is append-only.
type GormLoyaltyTransactionRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyTransactionRepository creates a new GormLoyaltyTransactionRepository
func NewGormLoyaltyTransactionRepository(db *gorm.DB) *GormLoyaltyTransactionRepository {
	return &GormLoyaltyTransactionRepository{db: db}
}

var loyaltySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"points":     true,
}

// Append persists one ledger entry
func (r *GormLoyaltyTransactionRepository) Append(ctx context.Context, entry *partner.LoyaltyTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByCustomerForTenant returns a page of the customer's ledger entries
func (r *GormLoyaltyTransactionRepository) FindByCustomerForTenant(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]partner.LoyaltyTransaction, error) {
	var entries []partner.LoyaltyTransaction
	orderBy := ValidateSortField(filter.OrderBy, loyaltySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByReference returns every ledger entry recorded against the
// referenced sale, oldest first
func (r *GormLoyaltyTransactionRepository) FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]partner.LoyaltyTransaction, error) {
	var entries []partner.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_id = ?", tenantID, referenceID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ partner.LoyaltyTransactionRepository = (*GormLoyaltyTransactionRepository)(nil)
