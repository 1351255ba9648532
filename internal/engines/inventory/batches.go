package inventory

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/internal/storage"
)

const batchColumns = "b.batch_id, b.material_id, m.material_name, b.quantity, b.unit, b.batch_date, b.restock_date, b.logged_by, b.notes, b.status"

// BatchEngine manages material restock batches. Logging a batch credits the
// material's stock; quantity edits propagate the difference.
type BatchEngine struct {
	db     storage.DB
	logger *zap.Logger
}

// NewBatchEngine creates a batch engine.
func NewBatchEngine(db storage.DB, logger *zap.Logger) *BatchEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchEngine{
		db:     db,
		logger: logger.With(zap.String("component", "batch-engine")),
	}
}

// Create logs a restock batch and credits the material's quantity in one
// transaction. The restock date is stamped server-side.
func (e *BatchEngine) Create(ctx context.Context, input *models.BatchCreate) (*models.MaterialBatch, error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var materialName string
	err = tx.QueryRow(ctx,
		"SELECT material_name FROM materials WHERE material_id = $1", input.MaterialID).
		Scan(&materialName)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to look up material: %w", err)
	}

	status := models.DeriveBatchStatus(input.Quantity)

	var b models.MaterialBatch
	err = tx.QueryRow(ctx, `
		INSERT INTO material_batches (material_id, quantity, unit, batch_date, restock_date, logged_by, notes, status)
		VALUES ($1, $2, $3, $4, now(), $5, $6, $7)
		RETURNING batch_id, material_id, quantity, unit, batch_date, restock_date, logged_by, notes, status`,
		input.MaterialID, input.Quantity, input.Unit, input.BatchDate,
		input.LoggedBy, input.Notes, status).
		Scan(&b.BatchID, &b.MaterialID, &b.Quantity, &b.Unit, &b.BatchDate,
			&b.RestockDate, &b.LoggedBy, &b.Notes, &b.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	b.MaterialName = materialName

	_, err = tx.Exec(ctx,
		"UPDATE materials SET material_quantity = material_quantity + $1 WHERE material_id = $2",
		input.Quantity, input.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit material stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}

	e.logger.Info("Batch logged",
		zap.Int64("batch_id", b.BatchID),
		zap.Int64("material_id", b.MaterialID),
		zap.Float64("quantity", b.Quantity))
	return &b, nil
}

// ListAll returns every batch joined with its material name. Stale statuses
// are reconciled against the current quantity before returning.
func (e *BatchEngine) ListAll(ctx context.Context) ([]models.MaterialBatch, error) {
	return e.list(ctx, sq.Eq{})
}

// ListByMaterial returns the batches logged against one material.
func (e *BatchEngine) ListByMaterial(ctx context.Context, materialID int64) ([]models.MaterialBatch, error) {
	return e.list(ctx, sq.Eq{"b.material_id": materialID})
}

func (e *BatchEngine) list(ctx context.Context, where sq.Eq) ([]models.MaterialBatch, error) {
	builder := psql.
		Select(batchColumns).
		From("material_batches b").
		Join("materials m ON b.material_id = m.material_id").
		OrderBy("b.batch_id")
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	batches := make([]models.MaterialBatch, 0)
	for rows.Next() {
		var b models.MaterialBatch
		err := rows.Scan(&b.BatchID, &b.MaterialID, &b.MaterialName, &b.Quantity,
			&b.Unit, &b.BatchDate, &b.RestockDate, &b.LoggedBy, &b.Notes, &b.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batches: %w", err)
	}

	if err := e.reconcileStatuses(ctx, batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// reconcileStatuses rewrites stored batch statuses that no longer match the
// batch quantity and reflects the fix in the returned slice.
func (e *BatchEngine) reconcileStatuses(ctx context.Context, batches []models.MaterialBatch) error {
	for i := range batches {
		derived := models.DeriveBatchStatus(batches[i].Quantity)
		if derived == batches[i].Status {
			continue
		}
		_, err := e.db.Exec(ctx,
			"UPDATE material_batches SET status = $1 WHERE batch_id = $2",
			derived, batches[i].BatchID)
		if err != nil {
			return fmt.Errorf("failed to reconcile batch status: %w", err)
		}
		batches[i].Status = derived
	}
	return nil
}

// Update applies a partial batch update. A quantity change propagates the
// difference to the material's stock, and the batch status is rederived.
func (e *BatchEngine) Update(ctx context.Context, batchID int64, update *models.BatchUpdate) (*models.MaterialBatch, error) {
	if update.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		oldQuantity float64
		materialID  int64
	)
	err = tx.QueryRow(ctx,
		"SELECT quantity, material_id FROM material_batches WHERE batch_id = $1", batchID).
		Scan(&oldQuantity, &materialID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to look up batch: %w", err)
	}

	builder := psql.Update("material_batches").Where(sq.Eq{"batch_id": batchID})
	if update.Quantity != nil {
		builder = builder.
			Set("quantity", *update.Quantity).
			Set("status", models.DeriveBatchStatus(*update.Quantity))
	}
	if update.Unit != nil {
		builder = builder.Set("unit", *update.Unit)
	}
	if update.BatchDate != nil {
		builder = builder.Set("batch_date", *update.BatchDate)
	}
	if update.LoggedBy != nil {
		builder = builder.Set("logged_by", *update.LoggedBy)
	}
	if update.Notes != nil {
		builder = builder.Set("notes", *update.Notes)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	if update.Quantity != nil {
		diff := *update.Quantity - oldQuantity
		_, err := tx.Exec(ctx,
			"UPDATE materials SET material_quantity = material_quantity + $1 WHERE material_id = $2",
			diff, materialID)
		if err != nil {
			return nil, fmt.Errorf("failed to propagate quantity change: %w", err)
		}
	}

	var b models.MaterialBatch
	err = tx.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM material_batches b
		JOIN materials m ON b.material_id = m.material_id
		WHERE b.batch_id = $1`, batchID).
		Scan(&b.BatchID, &b.MaterialID, &b.MaterialName, &b.Quantity,
			&b.Unit, &b.BatchDate, &b.RestockDate, &b.LoggedBy, &b.Notes, &b.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to reload batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch update: %w", err)
	}

	e.logger.Info("Batch updated", zap.Int64("batch_id", b.BatchID))
	return &b, nil
}
