package inventory_test

import (
	"context"
	"errors"
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

func newMaterialEngine(t *testing.T) (*inventory.MaterialEngine, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return inventory.NewMaterialEngine(mockPool, zap.NewNop()), mockPool
}

func materialRows(pool pgxmock.PgxPoolIface) *pgxmock.Rows {
	return pool.NewRows([]string{
		"material_id", "material_name", "material_quantity",
		"material_measurement", "date_added", "status",
	})
}

func TestMaterialEngine_List(t *testing.T) {
	t.Run("Should list all materials", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)
		added := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		pool.ExpectQuery("SELECT (.+) FROM materials ORDER BY material_id").
			WillReturnRows(materialRows(pool).
				AddRow(int64(1), "Espresso Beans", 12.0, "pcs", added, "Available").
				AddRow(int64(2), "Oat Milk", 2.0, "box", added, "Low Stock"))

		materials, err := engine.List(context.Background())
		require.NoError(t, err)
		require.Len(t, materials, 2)
		assert.Equal(t, "Espresso Beans", materials[0].Name)
		assert.Equal(t, models.StockLow, materials[1].Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should return empty slice when no materials", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT (.+) FROM materials ORDER BY material_id").
			WillReturnRows(materialRows(pool))

		materials, err := engine.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, materials)
	})
}

func TestMaterialEngine_Create(t *testing.T) {
	input := &models.MaterialInput{
		Name:        "Espresso Beans",
		Quantity:    12,
		Measurement: "pcs",
		DateAdded:   models.NewDateOnly(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	t.Run("Should create material with derived status", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT EXISTS").
			WithArgs("Espresso Beans", int64(0)).
			WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(false))
		pool.ExpectQuery("INSERT INTO materials").
			WithArgs("Espresso Beans", 12.0, "pcs", pgxmock.AnyArg(), models.StockAvailable).
			WillReturnRows(materialRows(pool).
				AddRow(int64(1), "Espresso Beans", 12.0, "pcs", input.DateAdded.Time, "Available"))

		material, err := engine.Create(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, int64(1), material.ID)
		assert.Equal(t, models.StockAvailable, material.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should reject duplicate name ignoring case", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT EXISTS").
			WithArgs("Espresso Beans", int64(0)).
			WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(true))

		material, err := engine.Create(context.Background(), input)
		assert.Nil(t, material)
		assert.ErrorIs(t, err, inventory.ErrDuplicateName)
	})
}

func TestMaterialEngine_Update(t *testing.T) {
	input := &models.MaterialInput{
		Name:        "Oat Milk",
		Quantity:    1,
		Measurement: "box",
		DateAdded:   models.NewDateOnly(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	t.Run("Should update material and rederive status", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT EXISTS").
			WithArgs("Oat Milk", int64(7)).
			WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(false))
		pool.ExpectQuery("UPDATE materials SET").
			WithArgs("Oat Milk", 1.0, "box", pgxmock.AnyArg(), models.StockLow, int64(7)).
			WillReturnRows(materialRows(pool).
				AddRow(int64(7), "Oat Milk", 1.0, "box", input.DateAdded.Time, "Low Stock"))

		material, err := engine.Update(context.Background(), 7, input)
		require.NoError(t, err)
		assert.Equal(t, models.StockLow, material.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should return not found for missing material", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT EXISTS").
			WithArgs("Oat Milk", int64(99)).
			WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(false))
		pool.ExpectQuery("UPDATE materials SET").
			WithArgs("Oat Milk", 1.0, "box", pgxmock.AnyArg(), models.StockLow, int64(99)).
			WillReturnError(pgx.ErrNoRows)

		material, err := engine.Update(context.Background(), 99, input)
		assert.Nil(t, material)
		assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
	})

	t.Run("Should reject name collision with other material", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectQuery("SELECT EXISTS").
			WithArgs("Oat Milk", int64(7)).
			WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(true))

		material, err := engine.Update(context.Background(), 7, input)
		assert.Nil(t, material)
		assert.ErrorIs(t, err, inventory.ErrDuplicateName)
	})
}

func TestMaterialEngine_Delete(t *testing.T) {
	t.Run("Should delete existing material", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectExec("DELETE FROM materials").
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, engine.Delete(context.Background(), 3))
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should return not found when nothing deleted", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectExec("DELETE FROM materials").
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, engine.Delete(context.Background(), 3), inventory.ErrMaterialNotFound)
	})
}

func TestMaterialEngine_Count(t *testing.T) {
	engine, pool := newMaterialEngine(t)

	pool.ExpectQuery("SELECT COUNT").
		WillReturnRows(pool.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := engine.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestMaterialEngine_StatusCounts(t *testing.T) {
	engine, pool := newMaterialEngine(t)

	pool.ExpectQuery("SELECT").
		WillReturnRows(pool.NewRows([]string{"available", "low_stock", "not_available"}).
			AddRow(int64(10), int64(3), int64(1)))

	counts, err := engine.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), counts.Available)
	assert.Equal(t, int64(3), counts.LowStock)
	assert.Equal(t, int64(1), counts.NotAvailable)
}

func TestMaterialEngine_LowStockAlerts(t *testing.T) {
	engine, pool := newMaterialEngine(t)

	pool.ExpectQuery("SELECT (.+) FROM materials WHERE status").
		WithArgs(models.StockLow).
		WillReturnRows(pool.NewRows([]string{"material_name", "material_quantity", "status"}).
			AddRow("Oat Milk", 2.0, "Low Stock"))

	alerts, err := engine.LowStockAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Oat Milk", alerts[0].Name)
	assert.Equal(t, "Material", alerts[0].Category)
	assert.Equal(t, 2.0, alerts[0].InStock)
	assert.Equal(t, 5.0, alerts[0].ReorderLevel)
	assert.Nil(t, alerts[0].LastRestocked)
}

func TestMaterialEngine_DeductFromSale(t *testing.T) {
	t.Run("Should deduct recipe materials and recompute statuses", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT r.recipe_id").
			WithArgs("Latte").
			WillReturnRows(pool.NewRows([]string{"recipe_id"}).AddRow(int64(5)))
		pool.ExpectQuery("SELECT material_id, quantity FROM recipe_materials").
			WithArgs(int64(5)).
			WillReturnRows(pool.NewRows([]string{"material_id", "quantity"}).
				AddRow(int64(1), 2.0).
				AddRow(int64(2), 0.5))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity -").
			WithArgs(4.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity -").
			WithArgs(1.0, int64(2)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectExec("UPDATE materials").
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		pool.ExpectCommit()

		result, err := engine.DeductFromSale(context.Background(), []models.SoldItem{
			{Name: "Latte", Quantity: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.ItemsProcessed)
		assert.Empty(t, result.ItemsSkipped)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Should skip products without a recipe", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT r.recipe_id").
			WithArgs("Gift Card").
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectExec("UPDATE materials").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		pool.ExpectCommit()

		result, err := engine.DeductFromSale(context.Background(), []models.SoldItem{
			{Name: "Gift Card", Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.ItemsProcessed)
		assert.Equal(t, []string{"Gift Card"}, result.ItemsSkipped)
	})

	t.Run("Should roll back when a deduction fails", func(t *testing.T) {
		engine, pool := newMaterialEngine(t)

		pool.ExpectBegin()
		pool.ExpectQuery("SELECT r.recipe_id").
			WithArgs("Latte").
			WillReturnRows(pool.NewRows([]string{"recipe_id"}).AddRow(int64(5)))
		pool.ExpectQuery("SELECT material_id, quantity FROM recipe_materials").
			WithArgs(int64(5)).
			WillReturnRows(pool.NewRows([]string{"material_id", "quantity"}).
				AddRow(int64(1), 2.0))
		pool.ExpectExec("UPDATE materials SET material_quantity = material_quantity -").
			WithArgs(2.0, int64(1)).
			WillReturnError(errors.New("deadlock detected"))
		pool.ExpectRollback()

		result, err := engine.DeductFromSale(context.Background(), []models.SoldItem{
			{Name: "Latte", Quantity: 1},
		})
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "deadlock")
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
