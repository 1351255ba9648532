package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/pkg/events"
)

func (s *Server) registerBatchRoutes(router *gin.Engine) {
	staff := []string{models.RoleAdmin, models.RoleManager, models.RoleStaff}

	group := router.Group("/material-batches", AuthMiddleware(s.validator, s.apiKeys, staff...))
	group.POST("", s.createBatch)
	group.GET("", s.listBatches)
	group.GET("/:material_id", s.listBatchesByMaterial)
	group.PUT("/:batch_id", s.updateBatch)
}

func (s *Server) createBatch(c *gin.Context) {
	var input models.BatchCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	batch, err := s.batches.Create(c.Request.Context(), &input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.recorder.CountBatchLogged()
	s.publishEvent(events.BatchTopic(events.ActionLogged), events.MessageTypeEvent,
		batchEvent(batch))
	c.JSON(http.StatusCreated, batch)
}

func (s *Server) listBatches(c *gin.Context) {
	batches, err := s.batches.ListAll(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

func (s *Server) listBatchesByMaterial(c *gin.Context) {
	materialID, ok := pathID(c, "material_id")
	if !ok {
		return
	}

	batches, err := s.batches.ListByMaterial(c.Request.Context(), materialID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

func (s *Server) updateBatch(c *gin.Context) {
	batchID, ok := pathID(c, "batch_id")
	if !ok {
		return
	}

	var update models.BatchUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	batch, err := s.batches.Update(c.Request.Context(), batchID, &update)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.publishEvent(events.BatchTopic(events.ActionUpdated), events.MessageTypeEvent,
		batchEvent(batch))
	c.JSON(http.StatusOK, batch)
}

func batchEvent(b *models.MaterialBatch) events.BatchEvent {
	return events.BatchEvent{
		BatchID:    b.BatchID,
		MaterialID: b.MaterialID,
		Quantity:   b.Quantity,
		Unit:       b.Unit,
		LoggedBy:   b.LoggedBy,
	}
}
