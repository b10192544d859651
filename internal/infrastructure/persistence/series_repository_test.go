package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSeriesRepository creates a GormSeriesRepository with a mocked SQL connection
func newMockSeriesRepository(t *testing.T) (*GormSeriesRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSeriesRepository(gormDB), mock, mockDB
}

func seriesColumns() []string {
	return []string{"id", "created_at", "updated_at", "version", "tenant_id", "prefix", "label", "last_number", "is_active"}
}

func TestGormSeriesRepository_AllocateNext(t *testing.T) {
	t.Run("locks the series row and increments the counter", func(t *testing.T) {
		repo, mock, mockDB := newMockSeriesRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		seriesID := uuid.New()

		now := time.Now()
		rows := sqlmock.NewRows(seriesColumns()).
			AddRow(seriesID, now, now, 1, tenantID, "FR", "A", int64(41), true)

		// The read must carry FOR UPDATE so concurrent allocators queue
		// on the row until this transaction finishes.
		mock.ExpectQuery(`SELECT \* FROM "document_series" WHERE tenant_id = \$1 AND prefix = \$2 AND is_active = \$3 .* FOR UPDATE`).
			WithArgs(tenantID, "FR", true, 1).
			WillReturnRows(rows)

		mock.ExpectExec(`UPDATE "document_series" SET .* WHERE id = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		alloc, err := repo.AllocateNext(context.Background(), tenantID, "FR")
		require.NoError(t, err)
		assert.Equal(t, int64(42), alloc.Number)
		assert.Equal(t, "A", alloc.SeriesLabel)
		assert.Equal(t, "FR A/0042", alloc.ReceiptNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates the series on first allocation", func(t *testing.T) {
		repo, mock, mockDB := newMockSeriesRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "document_series" .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(seriesColumns()))

		// The primary key is client-assigned, so the INSERT is a plain exec
		mock.ExpectExec(`INSERT INTO "document_series"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`UPDATE "document_series" SET .* WHERE id = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		alloc, err := repo.AllocateNext(context.Background(), tenantID, "FR")
		require.NoError(t, err)
		assert.Equal(t, int64(1), alloc.Number)
		assert.Equal(t, "FR A/0001", alloc.ReceiptNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a duplicate first insert to sequence contention", func(t *testing.T) {
		repo, mock, mockDB := newMockSeriesRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "document_series" .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(seriesColumns()))

		mock.ExpectExec(`INSERT INTO "document_series"`).
			WillReturnError(gorm.ErrDuplicatedKey)

		_, err := repo.AllocateNext(context.Background(), tenantID, "FR")
		assert.ErrorIs(t, err, shared.ErrSequenceContention)
	})
}

func TestGormSeriesRepository_FindActive(t *testing.T) {
	t.Run("returns ErrNotFound when the tenant has no series", func(t *testing.T) {
		repo, mock, mockDB := newMockSeriesRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "document_series"`).
			WillReturnRows(sqlmock.NewRows(seriesColumns()))

		_, err := repo.FindActive(context.Background(), uuid.New(), "FR")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
