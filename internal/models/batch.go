package models

import "time"

// BatchStatus labels whether a restock batch still holds stock.
type BatchStatus string

const (
	// BatchAvailable means the batch still has quantity left.
	BatchAvailable BatchStatus = "Available"
	// BatchUsed means the batch quantity has been fully consumed.
	BatchUsed BatchStatus = "Used"
)

// DeriveBatchStatus computes a batch's status from its quantity. Only an
// exactly zero quantity marks a batch as used.
func DeriveBatchStatus(quantity float64) BatchStatus {
	if quantity == 0 {
		return BatchUsed
	}
	return BatchAvailable
}

// MaterialBatch is a restock delivery logged against a material.
type MaterialBatch struct {
	BatchID      int64       `json:"batch_id"`
	MaterialID   int64       `json:"material_id"`
	MaterialName string      `json:"material_name"`
	Quantity     float64     `json:"quantity"`
	Unit         string      `json:"unit"`
	BatchDate    DateOnly    `json:"batch_date"`
	RestockDate  time.Time   `json:"restock_date"`
	LoggedBy     string      `json:"logged_by"`
	Notes        *string     `json:"notes"`
	Status       BatchStatus `json:"status"`
}

// BatchCreate carries the fields for logging a new batch. The restock date
// is stamped server-side.
type BatchCreate struct {
	MaterialID int64    `json:"material_id" binding:"required"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit" binding:"required"`
	BatchDate  DateOnly `json:"batch_date" binding:"required"`
	LoggedBy   string   `json:"logged_by" binding:"required"`
	Notes      *string  `json:"notes"`
}

// BatchUpdate carries a partial update. Nil fields are left unchanged.
type BatchUpdate struct {
	Quantity  *float64  `json:"quantity"`
	Unit      *string   `json:"unit"`
	BatchDate *DateOnly `json:"batch_date"`
	LoggedBy  *string   `json:"logged_by"`
	Notes     *string   `json:"notes"`
}

// IsEmpty reports whether the update carries no fields.
func (u *BatchUpdate) IsEmpty() bool {
	return u.Quantity == nil && u.Unit == nil && u.BatchDate == nil &&
		u.LoggedBy == nil && u.Notes == nil
}
