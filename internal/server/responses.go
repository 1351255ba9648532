package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bleu-ims/materials-service/internal/engines/inventory"
)

// errorBody is the error payload shape: {"detail": "..."}.
func errorBody(detail string) gin.H {
	return gin.H{"detail": detail}
}

func respondError(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, errorBody(detail))
}

// respondEngineError maps inventory engine errors onto HTTP status codes.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrMaterialNotFound):
		respondError(c, http.StatusNotFound, "Material not found")
	case errors.Is(err, inventory.ErrBatchNotFound):
		respondError(c, http.StatusNotFound, "Batch not found")
	case errors.Is(err, inventory.ErrDuplicateName):
		respondError(c, http.StatusConflict, "Material name already exists.")
	case errors.Is(err, inventory.ErrNothingToUpdate):
		respondError(c, http.StatusBadRequest, "Nothing to update")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
