// Package inventory implements material and batch stock management on top of
// PostgreSQL.
package inventory

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrMaterialNotFound is returned when a material ID does not exist.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrBatchNotFound is returned when a batch ID does not exist.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrDuplicateName is returned when a material name already exists,
	// compared case-insensitively.
	ErrDuplicateName = errors.New("material name already exists")
	// ErrNothingToUpdate is returned when a partial update carries no fields.
	ErrNothingToUpdate = errors.New("nothing to update")
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
