package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/inventory"
	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/comercia/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory
	// database and serializes concurrent transactions.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}

func newEngine(t *testing.T, db *gorm.DB) *appsales.Service {
	t.Helper()
	scope := persistence.NewGormSaleScope(db, 5*time.Second)
	reads := appsales.ReadRepositories{
		Sales:     persistence.NewGormSaleRepository(db),
		Alerts:    persistence.NewGormAlertRepository(db),
		Movements: persistence.NewGormStockMovementRepository(db),
	}
	return appsales.NewService(scope, reads, appsales.DefaultConfig(), zap.NewNop())
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, sku string, price, stock, minStock int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(tenantID, name, sku,
		decimal.NewFromInt(price), decimal.NewFromInt(stock), decimal.NewFromInt(minStock))
	require.NoError(t, err)
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID, points int64) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer(tenantID, "Ana Machava", "ana@example.com", "+258840000001")
	require.NoError(t, err)
	customer.LoyaltyPoints = points
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func testIdentity(tenantID uuid.UUID) appsales.Identity {
	return appsales.Identity{
		TenantID: tenantID,
		UserID:   uuid.New(),
		UserName: "cashier",
		ClientIP: "10.0.0.5",
	}
}

// cashSale builds a single-line cash posting for qty units of the product
func cashSale(product *catalog.Product, qty int64) appsales.CreateSaleInput {
	quantity := decimal.NewFromInt(qty)
	subtotal := quantity.Mul(product.Price)
	return appsales.CreateSaleInput{
		Lines: []appsales.SaleLineInput{{
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			Discount:  decimal.Zero,
		}},
		Subtotal:      subtotal,
		Total:         subtotal,
		PaymentMethod: sales.PaymentCash,
		AmountPaid:    subtotal,
	}
}

func TestCreateSale_PostsReceiptAndDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Açúcar 1kg", "SKU-001", 100, 10, 5)

	resp, err := engine.CreateSale(context.Background(), testIdentity(tenantID), cashSale(product, 3))
	require.NoError(t, err)

	assert.Equal(t, "FR A/0001", resp.ReceiptNumber)
	assert.Equal(t, int64(1), resp.FiscalNumber)
	assert.Equal(t, "A", resp.SeriesLabel)
	assert.Len(t, resp.HashCode, 16)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(300)))

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, catalog.StatusInStock, reloaded.Status)

	var movements []inventory.StockMovement
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementSale, movements[0].MovementType)
	assert.True(t, movements[0].Quantity.Equal(decimal.NewFromInt(-3)))
	assert.True(t, movements[0].BalanceBefore.Equal(decimal.NewFromInt(10)))
	assert.True(t, movements[0].BalanceAfter.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "FR A/0001", movements[0].Reference)
}

func TestCreateSale_SequentialNumbersAreGapFree(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Arroz 5kg", "SKU-002", 250, 100, 10)
	identity := testIdentity(tenantID)

	for i := int64(1); i <= 3; i++ {
		resp, err := engine.CreateSale(context.Background(), identity, cashSale(product, 1))
		require.NoError(t, err)
		assert.Equal(t, i, resp.FiscalNumber)
	}

	var series numbering.DocumentSeries
	require.NoError(t, db.First(&series, "tenant_id = ?", tenantID).Error)
	assert.Equal(t, int64(3), series.LastNumber)
}

func TestCreateSale_ConcurrentPostingsNeverShareANumber(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Óleo 1L", "SKU-003", 150, 100, 10)
	identity := testIdentity(tenantID)

	const postings = 8
	numbers := make(chan int64, postings)
	var wg sync.WaitGroup
	for i := 0; i < postings; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := engine.CreateSale(context.Background(), identity, cashSale(product, 1))
			if assert.NoError(t, err) {
				numbers <- resp.FiscalNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for n := range numbers {
		assert.False(t, seen[n], "fiscal number %d allocated twice", n)
		seen[n] = true
	}
	require.Len(t, seen, postings)
	for i := int64(1); i <= postings; i++ {
		assert.True(t, seen[i], "fiscal number %d missing from sequence", i)
	}
}

func TestCreateSale_TenantsNumberIndependently(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantA := uuid.New()
	tenantB := uuid.New()
	productA := seedProduct(t, db, tenantA, "Farinha", "SKU-010", 80, 50, 5)
	productB := seedProduct(t, db, tenantB, "Farinha", "SKU-010", 80, 50, 5)

	respA, err := engine.CreateSale(context.Background(), testIdentity(tenantA), cashSale(productA, 1))
	require.NoError(t, err)
	respB, err := engine.CreateSale(context.Background(), testIdentity(tenantB), cashSale(productB, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(1), respA.FiscalNumber)
	assert.Equal(t, int64(1), respB.FiscalNumber)
	// Receipt numbers are tenant-scoped: both tenants open their series
	// with the identical first receipt.
	assert.Equal(t, "FR A/0001", respA.ReceiptNumber)
	assert.Equal(t, "FR A/0001", respB.ReceiptNumber)

	// Within one tenant the receipt number stays unique.
	var duplicate sales.Sale
	duplicate.TenantAggregateRoot = shared.NewTenantAggregateRoot(tenantA)
	duplicate.ReceiptNumber = respA.ReceiptNumber
	duplicate.SeriesLabel = "A"
	duplicate.FiscalNumber = 1
	duplicate.HashCode = "0000000000000000"
	duplicate.UserID = uuid.New()
	duplicate.Subtotal = decimal.NewFromInt(1)
	duplicate.Total = decimal.NewFromInt(1)
	duplicate.PaymentMethod = sales.PaymentCash
	duplicate.AmountPaid = decimal.NewFromInt(1)
	assert.Error(t, db.Create(&duplicate).Error)
}

func TestCreateSale_LowStockAlertLifecycle(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Leite UHT", "SKU-004", 90, 6, 5)
	identity := testIdentity(tenantID)

	// 6 -> 4 crosses the threshold: one high-priority alert opens.
	_, err := engine.CreateSale(context.Background(), identity, cashSale(product, 2))
	require.NoError(t, err)

	var alerts []alerting.Alert
	require.NoError(t, db.Where("related_id = ?", product.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, alerting.PriorityHigh, alerts[0].Priority)
	assert.False(t, alerts[0].IsResolved)

	// 4 -> 2 stays low: no duplicate alert.
	_, err = engine.CreateSale(context.Background(), identity, cashSale(product, 2))
	require.NoError(t, err)
	require.NoError(t, db.Where("related_id = ?", product.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)

	// 2 -> 0: the open alert escalates to critical.
	resp, err := engine.CreateSale(context.Background(), identity, cashSale(product, 2))
	require.NoError(t, err)
	require.NoError(t, db.Where("related_id = ?", product.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, alerting.PriorityCritical, alerts[0].Priority)
	assert.False(t, alerts[0].IsResolved)

	// Selling out of nothing is rejected outright.
	_, err = engine.CreateSale(context.Background(), identity, cashSale(product, 1))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	// Cancelling the last posting returns stock above zero but still low;
	// the alert stays open. Cancelling the rest clears the threshold and
	// resolves it.
	_, err = engine.CancelSale(context.Background(), identity, resp.ID, "till error")
	require.NoError(t, err)
	require.NoError(t, db.Where("related_id = ?", product.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].IsResolved)

	page, err := engine.ListSales(context.Background(), tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	for _, s := range page.Items {
		_, err = engine.CancelSale(context.Background(), identity, s.ID, "till error")
		require.NoError(t, err)
	}

	require.NoError(t, db.Where("related_id = ?", product.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].IsResolved)
	assert.NotNil(t, alerts[0].ResolvedAt)
}

func TestCreateSale_LoyaltyRedemptionAndEarning(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Cesta básica", "SKU-005", 500, 20, 2)
	customer := seedCustomer(t, db, tenantID, 120)
	identity := testIdentity(tenantID)

	// Two units at 500: subtotal 1000, redeem 50 points at 1 MZN each.
	input := cashSale(product, 2)
	input.CustomerID = &customer.ID
	input.RedeemPoints = 50
	input.AmountPaid = decimal.NewFromInt(950)

	resp, err := engine.CreateSale(context.Background(), identity, input)
	require.NoError(t, err)

	// Total drops by the redemption discount; 950 spent earns 9 points.
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(950)))
	assert.True(t, resp.Discount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(50), resp.PointsRedeemed)
	assert.Equal(t, int64(9), resp.PointsEarned)

	var reloaded partner.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(79), reloaded.LoyaltyPoints)
	assert.True(t, reloaded.TotalPurchases.Equal(decimal.NewFromInt(950)))

	var entries []partner.LoyaltyTransaction
	require.NoError(t, db.Where("customer_id = ?", customer.ID).Order("points ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, partner.LoyaltyRedeem, entries[0].Type)
	assert.Equal(t, int64(-50), entries[0].Points)
	assert.Equal(t, partner.LoyaltyEarn, entries[1].Type)
	assert.Equal(t, int64(9), entries[1].Points)
	assert.Equal(t, resp.ID, entries[0].ReferenceID)
}

func TestCreateSale_InsufficientPoints(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Sabão", "SKU-006", 50, 10, 2)
	customer := seedCustomer(t, db, tenantID, 10)

	input := cashSale(product, 1)
	input.CustomerID = &customer.ID
	input.RedeemPoints = 50

	_, err := engine.CreateSale(context.Background(), testIdentity(tenantID), input)
	assert.ErrorIs(t, err, shared.ErrInsufficientPoints)

	// Nothing committed: no sale, no movement, stock untouched.
	var saleCount int64
	require.NoError(t, db.Model(&sales.Sale{}).Count(&saleCount).Error)
	assert.Zero(t, saleCount)
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.NewFromInt(10)))
}

func TestCreateSale_RecordsFiscalRetention(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Vinho", "SKU-007", 400, 12, 2)
	identity := testIdentity(tenantID)

	input := cashSale(product, 1)
	input.Tax = decimal.NewFromInt(64)
	input.Total = decimal.NewFromInt(464)
	input.AmountPaid = decimal.NewFromInt(464)

	resp, err := engine.CreateSale(context.Background(), identity, input)
	require.NoError(t, err)

	var retentions []fiscal.TaxRetention
	require.NoError(t, db.Where("entity_id = ?", resp.ID).Find(&retentions).Error)
	require.Len(t, retentions, 1)
	assert.Equal(t, fiscal.RetentionTypeSalesTax, retentions[0].Type)
	assert.Equal(t, fiscal.Period(time.Now()), retentions[0].Period)
	assert.True(t, retentions[0].BaseAmount.Equal(decimal.NewFromInt(64)))
	// No tenant config seeded, so the default 1% rate applies.
	assert.True(t, retentions[0].RetainedAmount.Equal(decimal.NewFromFloat(0.64)))
}

func TestCreateSale_TenantRateOverridesDefault(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Cerveja", "SKU-008", 100, 24, 2)

	cfg := &fiscal.TaxConfig{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                fiscal.RetentionTypeSalesTax,
		Rate:                decimal.NewFromFloat(0.05),
		IsActive:            true,
	}
	require.NoError(t, db.Create(cfg).Error)

	input := cashSale(product, 1)
	input.Tax = decimal.NewFromInt(16)
	input.Total = decimal.NewFromInt(116)
	input.AmountPaid = decimal.NewFromInt(116)

	resp, err := engine.CreateSale(context.Background(), testIdentity(tenantID), input)
	require.NoError(t, err)

	var retentions []fiscal.TaxRetention
	require.NoError(t, db.Where("entity_id = ?", resp.ID).Find(&retentions).Error)
	require.Len(t, retentions, 1)
	assert.True(t, retentions[0].RetainedAmount.Equal(decimal.NewFromFloat(0.8)))
}

// brokenRetentionRepos delegates to the real transaction-scoped
// repositories but fails every retention append, simulating a fiscal
// store rejecting the insert mid-transaction.
type brokenRetentionRepos struct {
	appsales.Repositories
}

var errRetentionDown = errors.New("retention store unavailable")

type failingRetentionRepo struct{}

func (failingRetentionRepo) Append(context.Context, *fiscal.TaxRetention) error {
	return errRetentionDown
}

func (failingRetentionRepo) FindByEntity(context.Context, uuid.UUID, uuid.UUID) ([]fiscal.TaxRetention, error) {
	return nil, errRetentionDown
}

func (r brokenRetentionRepos) TaxRetentions() fiscal.TaxRetentionRepository {
	return failingRetentionRepo{}
}

func (r brokenRetentionRepos) Savepoint(ctx context.Context, fn func(appsales.Repositories) error) error {
	return r.Repositories.Savepoint(ctx, func(inner appsales.Repositories) error {
		return fn(brokenRetentionRepos{inner})
	})
}

type brokenRetentionScope struct {
	inner appsales.TransactionScope
}

func (s *brokenRetentionScope) Execute(ctx context.Context, fn func(appsales.Repositories) error) error {
	return s.inner.Execute(ctx, func(repos appsales.Repositories) error {
		return fn(brokenRetentionRepos{repos})
	})
}

func TestCreateSale_RetentionFailureDoesNotVoidSale(t *testing.T) {
	db := newTestDB(t)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Sumo", "SKU-013", 200, 8, 2)

	scope := &brokenRetentionScope{inner: persistence.NewGormSaleScope(db, 5*time.Second)}
	reads := appsales.ReadRepositories{
		Sales:     persistence.NewGormSaleRepository(db),
		Alerts:    persistence.NewGormAlertRepository(db),
		Movements: persistence.NewGormStockMovementRepository(db),
	}
	engine := appsales.NewService(scope, reads, appsales.DefaultConfig(), zap.NewNop())

	input := cashSale(product, 1)
	input.Tax = decimal.NewFromInt(32)
	input.Total = decimal.NewFromInt(232)
	input.AmountPaid = decimal.NewFromInt(232)

	// The retention append fails inside its savepoint; the sale must
	// still commit with its stock movement, just without a retention row.
	resp, err := engine.CreateSale(context.Background(), testIdentity(tenantID), input)
	require.NoError(t, err)
	assert.Equal(t, "FR A/0001", resp.ReceiptNumber)

	var retentions []fiscal.TaxRetention
	require.NoError(t, db.Where("entity_id = ?", resp.ID).Find(&retentions).Error)
	assert.Empty(t, retentions)

	var saleCount, movementCount int64
	require.NoError(t, db.Model(&sales.Sale{}).Count(&saleCount).Error)
	require.NoError(t, db.Model(&inventory.StockMovement{}).Count(&movementCount).Error)
	assert.Equal(t, int64(1), saleCount)
	assert.Equal(t, int64(1), movementCount)
}

func TestCreateSale_ValidationFailures(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Pão", "SKU-009", 10, 100, 5)
	identity := testIdentity(tenantID)

	t.Run("no lines", func(t *testing.T) {
		input := cashSale(product, 1)
		input.Lines = nil
		_, err := engine.CreateSale(context.Background(), identity, input)
		require.Error(t, err)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		input := cashSale(product, 1)
		input.PaymentMethod = "barter"
		_, err := engine.CreateSale(context.Background(), identity, input)
		require.Error(t, err)
	})

	t.Run("subtotal mismatch", func(t *testing.T) {
		input := cashSale(product, 1)
		input.Subtotal = decimal.NewFromInt(999)
		_, err := engine.CreateSale(context.Background(), identity, input)
		require.Error(t, err)
	})

	t.Run("redemption without customer", func(t *testing.T) {
		input := cashSale(product, 1)
		input.RedeemPoints = 10
		_, err := engine.CreateSale(context.Background(), identity, input)
		require.Error(t, err)
	})

	t.Run("unknown customer", func(t *testing.T) {
		input := cashSale(product, 1)
		ghost := uuid.New()
		input.CustomerID = &ghost
		_, err := engine.CreateSale(context.Background(), identity, input)
		assert.ErrorIs(t, err, appsales.ErrCustomerNotFound)
	})
}

func TestCancelSale_ReversesEverything(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Chá", "SKU-011", 200, 15, 3)
	customer := seedCustomer(t, db, tenantID, 100)
	identity := testIdentity(tenantID)

	input := cashSale(product, 5) // subtotal 1000
	input.CustomerID = &customer.ID
	input.RedeemPoints = 40
	input.AmountPaid = decimal.NewFromInt(960)

	resp, err := engine.CreateSale(context.Background(), identity, input)
	require.NoError(t, err)

	result, err := engine.CancelSale(context.Background(), identity, resp.ID, "customer returned goods")
	require.NoError(t, err)
	assert.Equal(t, resp.ReceiptNumber, result.ReceiptNumber)

	// Stock restored, with a compensating movement on the chain.
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.NewFromInt(15)))

	var movements []inventory.StockMovement
	require.NoError(t, db.Where("product_id = ?", product.ID).Order("created_at ASC").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, inventory.MovementReturnIn, movements[1].MovementType)
	assert.True(t, movements[1].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, movements[1].BalanceAfter.Equal(decimal.NewFromInt(15)))

	// Loyalty: original rows plus compensating rows net to zero.
	var entries []partner.LoyaltyTransaction
	require.NoError(t, db.Where("customer_id = ?", customer.ID).Find(&entries).Error)
	require.Len(t, entries, 4)
	var net int64
	for _, e := range entries {
		net += e.Points
	}
	assert.Zero(t, net)

	var reloadedCustomer partner.Customer
	require.NoError(t, db.First(&reloadedCustomer, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(100), reloadedCustomer.LoyaltyPoints)
	assert.True(t, reloadedCustomer.TotalPurchases.IsZero())

	// The sale and its items are gone; the audit log keeps the snapshot.
	_, err = engine.GetSale(context.Background(), tenantID, resp.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&sales.SaleLineItem{}).Where("sale_id = ?", resp.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	var entriesAudit []audit.Entry
	require.NoError(t, db.Where("tenant_id = ?", tenantID).Find(&entriesAudit).Error)
	require.Len(t, entriesAudit, 1)
	assert.Equal(t, audit.ActionSaleCancelled, entriesAudit[0].Action)
	assert.Equal(t, resp.ID, entriesAudit[0].EntityID)
	assert.Contains(t, entriesAudit[0].Snapshot, resp.ReceiptNumber)
	assert.Equal(t, "customer returned goods", entriesAudit[0].Reason)

	// The burned number is not reused; the next posting continues the series.
	next, err := engine.CreateSale(context.Background(), identity, cashSale(product, 1))
	require.NoError(t, err)
	assert.Equal(t, resp.FiscalNumber+1, next.FiscalNumber)
}

func TestCancelSale_RequiresReason(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	_, err := engine.CancelSale(context.Background(), testIdentity(uuid.New()), uuid.New(), "")
	require.Error(t, err)
}

func TestCancelSale_UnknownSale(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	_, err := engine.CancelSale(context.Background(), testIdentity(uuid.New()), uuid.New(), "mistake")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// failingScope forces a post-workflow error so the surrounding transaction
// rolls back after every step has run.
type failingScope struct {
	inner appsales.TransactionScope
}

var errForced = errors.New("forced rollback")

func (s *failingScope) Execute(ctx context.Context, fn func(appsales.Repositories) error) error {
	return s.inner.Execute(ctx, func(repos appsales.Repositories) error {
		if err := fn(repos); err != nil {
			return err
		}
		return errForced
	})
}

func TestCreateSale_FailureRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Bolacha", "SKU-012", 30, 10, 2)
	customer := seedCustomer(t, db, tenantID, 60)

	scope := &failingScope{inner: persistence.NewGormSaleScope(db, 5*time.Second)}
	reads := appsales.ReadRepositories{
		Sales:     persistence.NewGormSaleRepository(db),
		Alerts:    persistence.NewGormAlertRepository(db),
		Movements: persistence.NewGormStockMovementRepository(db),
	}
	engine := appsales.NewService(scope, reads, appsales.DefaultConfig(), zap.NewNop())

	input := cashSale(product, 4)
	input.CustomerID = &customer.ID
	input.RedeemPoints = 20
	input.AmountPaid = decimal.NewFromInt(100)

	_, err := engine.CreateSale(context.Background(), testIdentity(tenantID), input)
	assert.ErrorIs(t, err, errForced)

	var saleCount, movementCount, loyaltyCount, seriesCount int64
	require.NoError(t, db.Model(&sales.Sale{}).Count(&saleCount).Error)
	require.NoError(t, db.Model(&inventory.StockMovement{}).Count(&movementCount).Error)
	require.NoError(t, db.Model(&partner.LoyaltyTransaction{}).Count(&loyaltyCount).Error)
	require.NoError(t, db.Model(&numbering.DocumentSeries{}).Count(&seriesCount).Error)
	assert.Zero(t, saleCount)
	assert.Zero(t, movementCount)
	assert.Zero(t, loyaltyCount)
	assert.Zero(t, seriesCount)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.NewFromInt(10)))

	var reloadedCustomer partner.Customer
	require.NoError(t, db.First(&reloadedCustomer, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(60), reloadedCustomer.LoyaltyPoints)
}

func TestReadSurface(t *testing.T) {
	db := newTestDB(t)
	engine := newEngine(t, db)
	tenantID := uuid.New()
	product := seedProduct(t, db, tenantID, "Refresco", "SKU-013", 60, 8, 5)
	identity := testIdentity(tenantID)

	resp, err := engine.CreateSale(context.Background(), identity, cashSale(product, 4))
	require.NoError(t, err)

	got, err := engine.GetSale(context.Background(), tenantID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ReceiptNumber, got.ReceiptNumber)
	require.Len(t, got.Items, 1)

	page, err := engine.ListSales(context.Background(), tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)

	alerts, err := engine.OpenAlerts(context.Background(), tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, alerts, 1) // 8 -> 4 crossed the low-stock threshold

	movements, err := engine.ProductMovements(context.Background(), tenantID, product.ID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, movements, 1)

	// Reads are tenant-scoped: another tenant sees nothing.
	_, err = engine.GetSale(context.Background(), uuid.New(), resp.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
