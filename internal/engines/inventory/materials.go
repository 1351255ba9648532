package inventory

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/internal/storage"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const materialColumns = "material_id, material_name, material_quantity, material_measurement, date_added, status"

// recomputeStatusSQL rederives every material's stock status in one statement.
// Keep the thresholds in sync with models.LowStockThresholds.
const recomputeStatusSQL = `
	UPDATE materials
	SET status = CASE
		WHEN material_quantity <= 0 THEN 'Not Available'
		WHEN (lower(material_measurement) = 'pcs' AND material_quantity <= 10) OR
		     (lower(material_measurement) = 'box' AND material_quantity <= 5) OR
		     (lower(material_measurement) = 'pack' AND material_quantity <= 5) OR
		     (lower(material_measurement) NOT IN ('pcs', 'box', 'pack') AND material_quantity <= 1)
		THEN 'Low Stock'
		ELSE 'Available'
	END`

// MaterialEngine manages material records and stock status.
type MaterialEngine struct {
	db     storage.DB
	logger *zap.Logger
}

// NewMaterialEngine creates a material engine.
func NewMaterialEngine(db storage.DB, logger *zap.Logger) *MaterialEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialEngine{
		db:     db,
		logger: logger.With(zap.String("component", "material-engine")),
	}
}

// DeductionResult reports the outcome of a sale deduction.
type DeductionResult struct {
	ItemsProcessed int
	ItemsSkipped   []string
}

// List returns all materials ordered by ID.
func (e *MaterialEngine) List(ctx context.Context) ([]models.Material, error) {
	query, args, err := psql.
		Select(materialColumns).
		From("materials").
		OrderBy("material_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	materials := make([]models.Material, 0)
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Quantity, &m.Measurement, &m.DateAdded, &m.Status); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read materials: %w", err)
	}
	return materials, nil
}

// Get returns a single material by ID.
func (e *MaterialEngine) Get(ctx context.Context, id int64) (*models.Material, error) {
	query, args, err := psql.
		Select(materialColumns).
		From("materials").
		Where(sq.Eq{"material_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var m models.Material
	err = e.db.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.Quantity, &m.Measurement, &m.DateAdded, &m.Status)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return &m, nil
}

// Create inserts a material and derives its initial stock status. Names must
// be unique ignoring case.
func (e *MaterialEngine) Create(ctx context.Context, input *models.MaterialInput) (*models.Material, error) {
	taken, err := e.nameTaken(ctx, input.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName
	}

	status := models.DeriveStockStatus(input.Quantity, input.Measurement)

	query, args, err := psql.
		Insert("materials").
		Columns("material_name", "material_quantity", "material_measurement", "date_added", "status").
		Values(input.Name, input.Quantity, input.Measurement, input.DateAdded, status).
		Suffix("RETURNING " + materialColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var m models.Material
	err = e.db.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.Quantity, &m.Measurement, &m.DateAdded, &m.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	e.logger.Info("Material created",
		zap.Int64("material_id", m.ID),
		zap.String("name", m.Name))
	return &m, nil
}

// Update replaces a material's fields and rederives its stock status.
func (e *MaterialEngine) Update(ctx context.Context, id int64, input *models.MaterialInput) (*models.Material, error) {
	taken, err := e.nameTaken(ctx, input.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName
	}

	status := models.DeriveStockStatus(input.Quantity, input.Measurement)

	query, args, err := psql.
		Update("materials").
		Set("material_name", input.Name).
		Set("material_quantity", input.Quantity).
		Set("material_measurement", input.Measurement).
		Set("date_added", input.DateAdded).
		Set("status", status).
		Where(sq.Eq{"material_id": id}).
		Suffix("RETURNING " + materialColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var m models.Material
	err = e.db.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.Quantity, &m.Measurement, &m.DateAdded, &m.Status)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	e.logger.Info("Material updated", zap.Int64("material_id", m.ID))
	return &m, nil
}

// Delete removes a material by ID.
func (e *MaterialEngine) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.
		Delete("materials").
		Where(sq.Eq{"material_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := e.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMaterialNotFound
	}

	e.logger.Info("Material deleted", zap.Int64("material_id", id))
	return nil
}

// Count returns the number of material records.
func (e *MaterialEngine) Count(ctx context.Context) (int64, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("materials").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int64
	if err := e.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return count, nil
}

// StatusCounts returns the number of materials per stock status.
func (e *MaterialEngine) StatusCounts(ctx context.Context) (*models.StockStatusCounts, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'Available' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'Low Stock' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'Not Available' THEN 1 ELSE 0 END), 0)
		FROM materials`

	var counts models.StockStatusCounts
	err := e.db.QueryRow(ctx, query).
		Scan(&counts.Available, &counts.LowStock, &counts.NotAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to count stock statuses: %w", err)
	}
	return &counts, nil
}

// LowStockAlerts returns alert entries for every material in Low Stock.
func (e *MaterialEngine) LowStockAlerts(ctx context.Context) ([]models.LowStockAlert, error) {
	query, args, err := psql.
		Select("material_name", "material_quantity", "status").
		From("materials").
		Where(sq.Eq{"status": models.StockLow}).
		OrderBy("material_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock materials: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.LowStockAlert, 0)
	for rows.Next() {
		alert := models.LowStockAlert{
			Category:     "Material",
			ReorderLevel: 5,
		}
		var status models.StockStatus
		if err := rows.Scan(&alert.Name, &alert.InStock, &status); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.Status = string(status)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return alerts, nil
}

// DeductFromSale deducts recipe materials for each sold product inside a
// single transaction, then rederives every material's status. Products
// without a recipe are skipped rather than failing the sale.
func (e *MaterialEngine) DeductFromSale(ctx context.Context, items []models.SoldItem) (*DeductionResult, error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &DeductionResult{ItemsSkipped: make([]string, 0)}

	for _, item := range items {
		var recipeID int64
		err := tx.QueryRow(ctx, `
			SELECT r.recipe_id
			FROM recipes r
			JOIN products p ON r.product_id = p.product_id
			WHERE p.product_name = $1`, item.Name).Scan(&recipeID)
		if err != nil {
			if isNoRows(err) {
				e.logger.Info("No recipe for product, skipping deduction",
					zap.String("product", item.Name))
				result.ItemsSkipped = append(result.ItemsSkipped, item.Name)
				continue
			}
			return nil, fmt.Errorf("failed to resolve recipe for %q: %w", item.Name, err)
		}

		rows, err := tx.Query(ctx,
			"SELECT material_id, quantity FROM recipe_materials WHERE recipe_id = $1", recipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe materials: %w", err)
		}

		type requirement struct {
			materialID int64
			quantity   float64
		}
		var requirements []requirement
		for rows.Next() {
			var r requirement
			if err := rows.Scan(&r.materialID, &r.quantity); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan recipe material: %w", err)
			}
			requirements = append(requirements, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read recipe materials: %w", err)
		}

		for _, r := range requirements {
			total := r.quantity * float64(item.Quantity)
			_, err := tx.Exec(ctx,
				"UPDATE materials SET material_quantity = material_quantity - $1 WHERE material_id = $2",
				total, r.materialID)
			if err != nil {
				return nil, fmt.Errorf("failed to deduct material %d: %w", r.materialID, err)
			}

			e.logger.Info("Deducted material for sale",
				zap.Int64("material_id", r.materialID),
				zap.Float64("deducted", total),
				zap.String("product", item.Name),
				zap.Int("sold", item.Quantity))
		}

		result.ItemsProcessed++
	}

	if _, err := tx.Exec(ctx, recomputeStatusSQL); err != nil {
		return nil, fmt.Errorf("failed to recompute stock statuses: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deduction: %w", err)
	}
	return result, nil
}

// nameTaken reports whether another material already uses the name, ignoring
// case. excludeID skips the material being updated.
func (e *MaterialEngine) nameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := e.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM materials WHERE lower(material_name) = lower($1) AND material_id != $2)",
		name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check material name: %w", err)
	}
	return exists, nil
}
