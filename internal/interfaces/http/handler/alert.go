package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/comercia/backend/internal/interfaces/http/dto"
)

// AlertHandler exposes open stock alerts
type AlertHandler struct {
	BaseHandler
	saleService *appsales.Service
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(saleService *appsales.Service) *AlertHandler {
	return &AlertHandler{saleService: saleService}
}

// List returns the tenant's unresolved stock alerts
func (h *AlertHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	alerts, err := h.saleService.OpenAlerts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alerts)
}

// MovementHandler exposes the stock movement ledger
type MovementHandler struct {
	BaseHandler
	saleService *appsales.Service
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(saleService *appsales.Service) *MovementHandler {
	return &MovementHandler{saleService: saleService}
}

// ListByProduct returns the movement history for one product
func (h *MovementHandler) ListByProduct(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	movements, err := h.saleService.ProductMovements(c.Request.Context(), tenantID, uuid.MustParse(uri.ID), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movements)
}
