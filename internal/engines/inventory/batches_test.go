package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/engines/inventory"
	"github.com/bleu-ims/materials-service/internal/models"
)

func newBatchEngine(t *testing.T) (*inventory.BatchEngine, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return inventory.NewBatchEngine(mockPool, zap.NewNop()), mockPool
}

func batchRows(pool pgxmock.PgxPoolIface) *pgxmock.Rows {
	return pool.NewRows([]string{
		"batch_id", "material_id", "material_name", "quantity", "unit",
		"batch_date", "restock_date", "logged_by", "notes", "status",
	})
}

func TestBatchEngine_Create(t *testing.T) {
	batchDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	restocked := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	input := &models.BatchCreate{
		MaterialID: 1,
		Quantity:   24,
		Unit:       "pcs",
		BatchDate:  models.NewDateOnly(batchDate),
		LoggedBy:   "ana",
	}

	t.Run("Should insert batch and credit material stock", func(t *testing.T) {
		engine, pool := newBatchEngine(t)

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT material_name FROM materials").
			WithArgs(int64(1)).
			WillReturnRows(pool.NewRows([]string{"material_name"}).AddRow("Espresso Beans"))
		pool.ExpectQuery("INSERT INTO material_batches").
			WithArgs(int64(1), 24.0, "pcs", pgxmock.AnyArg(), "ana", (*string)(nil), models.BatchAvailable).
			WillReturnRows(pool.NewRows([]string{
				"batch_id", "material_id", "quantity", "unit", "batch_date",
				"restock_date", "logged_by", "notes", "status",
			}).AddRow(int64(10), int64(1), 24.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Available"))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity \\+").
			WithArgs(24.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		batch, err := engine.Create(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, int64(10), batch.BatchID)
		assert.Equal(t, "Espresso Beans", batch.MaterialName)
		assert.Equal(t, models.BatchAvailable, batch.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should return not found for unknown material", func(t *testing.T) {
		engine, pool := newBatchEngine(t)

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT material_name FROM materials").
			WithArgs(int64(1)).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectRollback()

		batch, err := engine.Create(context.Background(), input)
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
	})

	t.Run("Should mark zero quantity batch as used", func(t *testing.T) {
		engine, pool := newBatchEngine(t)
		empty := &models.BatchCreate{
			MaterialID: 1,
			Quantity:   0,
			Unit:       "pcs",
			BatchDate:  models.NewDateOnly(batchDate),
			LoggedBy:   "ana",
		}

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT material_name FROM materials").
			WithArgs(int64(1)).
			WillReturnRows(pool.NewRows([]string{"material_name"}).AddRow("Espresso Beans"))
		pool.ExpectQuery("INSERT INTO material_batches").
			WithArgs(int64(1), 0.0, "pcs", pgxmock.AnyArg(), "ana", (*string)(nil), models.BatchUsed).
			WillReturnRows(pool.NewRows([]string{
				"batch_id", "material_id", "quantity", "unit", "batch_date",
				"restock_date", "logged_by", "notes", "status",
			}).AddRow(int64(11), int64(1), 0.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Used"))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity \\+").
			WithArgs(0.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		batch, err := engine.Create(context.Background(), empty)
		require.NoError(t, err)
		assert.Equal(t, models.BatchUsed, batch.Status)
	})
}

func TestBatchEngine_ListAll(t *testing.T) {
	batchDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	restocked := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Should list batches with material names", func(t *testing.T) {
		engine, pool := newBatchEngine(t)

		pool.ExpectQuery("SELECT (.+) FROM material_batches b JOIN materials m").
			WillReturnRows(batchRows(pool).
				AddRow(int64(10), int64(1), "Espresso Beans", 24.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Available"))

		batches, err := engine.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Espresso Beans", batches[0].MaterialName)
	})

	t.Run("Should reconcile stale statuses", func(t *testing.T) {
		engine, pool := newBatchEngine(t)

		pool.ExpectQuery("SELECT (.+) FROM material_batches b JOIN materials m").
			WillReturnRows(batchRows(pool).
				AddRow(int64(10), int64(1), "Espresso Beans", 0.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Available"))
		pool.ExpectExec("UPDATE material_batches SET status").
			WithArgs(models.BatchUsed, int64(10)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		batches, err := engine.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, models.BatchUsed, batches[0].Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestBatchEngine_ListByMaterial(t *testing.T) {
	batchDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	restocked := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	engine, pool := newBatchEngine(t)

	pool.ExpectQuery("SELECT (.+) FROM material_batches b JOIN materials m (.+) WHERE b.material_id").
		WithArgs(int64(1)).
		WillReturnRows(batchRows(pool).
			AddRow(int64(10), int64(1), "Espresso Beans", 24.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Available"))

	batches, err := engine.ListByMaterial(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(1), batches[0].MaterialID)
}

func TestBatchEngine_Update(t *testing.T) {
	batchDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	restocked := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Should reject empty update", func(t *testing.T) {
		engine, _ := newBatchEngine(t)

		batch, err := engine.Update(context.Background(), 10, &models.BatchUpdate{})
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, inventory.ErrNothingToUpdate)
	})

	t.Run("Should return not found for unknown batch", func(t *testing.T) {
		engine, pool := newBatchEngine(t)
		notes := "damaged crate"

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT quantity, material_id FROM material_batches").
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectRollback()

		batch, err := engine.Update(context.Background(), 99, &models.BatchUpdate{Notes: &notes})
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, inventory.ErrBatchNotFound)
	})

	t.Run("Should propagate quantity change to material stock", func(t *testing.T) {
		engine, pool := newBatchEngine(t)
		newQty := 30.0

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT quantity, material_id FROM material_batches").
			WithArgs(int64(10)).
			WillReturnRows(pool.NewRows([]string{"quantity", "material_id"}).AddRow(24.0, int64(1)))
		pool.ExpectExec("UPDATE material_batches SET").
			WithArgs(30.0, models.BatchAvailable, int64(10)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity \\+").
			WithArgs(6.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectQuery("SELECT (.+) FROM material_batches b").
			WithArgs(int64(10)).
			WillReturnRows(batchRows(pool).
				AddRow(int64(10), int64(1), "Espresso Beans", 30.0, "pcs", batchDate, restocked, "ana", (*string)(nil), "Available"))
		pool.ExpectCommit()

		batch, err := engine.Update(context.Background(), 10, &models.BatchUpdate{Quantity: &newQty})
		require.NoError(t, err)
		assert.Equal(t, 30.0, batch.Quantity)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should update notes without touching material stock", func(t *testing.T) {
		engine, pool := newBatchEngine(t)
		notes := "damaged crate"

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT quantity, material_id FROM material_batches").
			WithArgs(int64(10)).
			WillReturnRows(pool.NewRows([]string{"quantity", "material_id"}).AddRow(24.0, int64(1)))
		pool.ExpectExec("UPDATE material_batches SET").
			WithArgs(notes, int64(10)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectQuery("SELECT (.+) FROM material_batches b").
			WithArgs(int64(10)).
			WillReturnRows(batchRows(pool).
				AddRow(int64(10), int64(1), "Espresso Beans", 24.0, "pcs", batchDate, restocked, "ana", &notes, "Available"))
		pool.ExpectCommit()

		batch, err := engine.Update(context.Background(), 10, &models.BatchUpdate{Notes: &notes})
		require.NoError(t, err)
		require.NotNil(t, batch.Notes)
		assert.Equal(t, "damaged crate", *batch.Notes)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
