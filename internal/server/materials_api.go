package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/pkg/events"
)

func (s *Server) registerMaterialRoutes(router *gin.Engine) {
	staff := []string{models.RoleAdmin, models.RoleManager, models.RoleStaff}
	withCashier := append([]string{models.RoleCashier}, staff...)

	group := router.Group("/materials")
	group.GET("", AuthMiddleware(s.validator, s.apiKeys, staff...), s.listMaterials)
	group.POST("", AuthMiddleware(s.validator, s.apiKeys, staff...), s.createMaterial)
	group.GET("/count", AuthMiddleware(s.validator, s.apiKeys, staff...), s.countMaterials)
	group.GET("/stock-status-counts", AuthMiddleware(s.validator, s.apiKeys, withCashier...), s.stockStatusCounts)
	group.GET("/low-stock-alerts", AuthMiddleware(s.validator, s.apiKeys, withCashier...), s.lowStockAlerts)
	group.POST("/deduct-from-sale", AuthMiddleware(s.validator, s.apiKeys, withCashier...), s.deductFromSale)
	group.GET("/:id", AuthMiddleware(s.validator, s.apiKeys, staff...), s.getMaterial)
	group.PUT("/:id", AuthMiddleware(s.validator, s.apiKeys, staff...), s.updateMaterial)
	group.DELETE("/:id", AuthMiddleware(s.validator, s.apiKeys, staff...), s.deleteMaterial)
}

func (s *Server) listMaterials(c *gin.Context) {
	materials, err := s.materials.List(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}

func (s *Server) getMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	material, err := s.materials.Get(c.Request.Context(), id)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (s *Server) createMaterial(c *gin.Context) {
	var input models.MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	material, err := s.materials.Create(c.Request.Context(), &input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.publishEvent(events.MaterialTopic(events.ActionCreated), events.MessageTypeEvent,
		materialEvent(material))
	s.alertIfLowStock(material)
	c.JSON(http.StatusCreated, material)
}

func (s *Server) updateMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input models.MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	material, err := s.materials.Update(c.Request.Context(), id, &input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.publishEvent(events.MaterialTopic(events.ActionUpdated), events.MessageTypeEvent,
		materialEvent(material))
	s.alertIfLowStock(material)
	c.JSON(http.StatusOK, material)
}

func (s *Server) deleteMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.materials.Delete(c.Request.Context(), id); err != nil {
		respondEngineError(c, err)
		return
	}

	s.publishEvent(events.MaterialTopic(events.ActionDeleted), events.MessageTypeEvent,
		events.MaterialEvent{MaterialID: id})
	c.JSON(http.StatusOK, gin.H{"message": "Material deleted successfully"})
}

func (s *Server) countMaterials(c *gin.Context) {
	count, err := s.materials.Count(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) stockStatusCounts(c *gin.Context) {
	counts, err := s.materials.StatusCounts(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.recorder.SetLowStockCount(counts.LowStock)
	c.JSON(http.StatusOK, counts)
}

func (s *Server) lowStockAlerts(c *gin.Context) {
	alerts, err := s.materials.LowStockAlerts(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	s.recorder.SetLowStockCount(int64(len(alerts)))
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) deductFromSale(c *gin.Context) {
	var request models.DeductSaleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := s.materials.DeductFromSale(c.Request.Context(), request.CartItems)
	if err != nil {
		s.logger.Error("Sale deduction failed, transaction rolled back", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update materials inventory.")
		return
	}

	s.recorder.CountDeduction("processed", result.ItemsProcessed)
	s.recorder.CountDeduction("skipped", len(result.ItemsSkipped))
	s.publishEvent(events.SaleDeductedTopic(), events.MessageTypeEvent,
		events.DeductionEvent{
			ItemsProcessed: result.ItemsProcessed,
			ItemsSkipped:   result.ItemsSkipped,
		})
	c.JSON(http.StatusOK, gin.H{"message": "Materials inventory deducted successfully."})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

// alertIfLowStock publishes a stock alert for materials at or below threshold.
func (s *Server) alertIfLowStock(m *models.Material) {
	if m.Status == models.StockAvailable {
		return
	}
	s.publishEvent(events.LowStockTopic(), events.MessageTypeAlert,
		events.LowStockEvent{
			MaterialID: m.ID,
			Name:       m.Name,
			Quantity:   m.Quantity,
			Status:     string(m.Status),
		})
}

func materialEvent(m *models.Material) events.MaterialEvent {
	return events.MaterialEvent{
		MaterialID:  m.ID,
		Name:        m.Name,
		Quantity:    m.Quantity,
		Measurement: m.Measurement,
		Status:      string(m.Status),
	}
}
