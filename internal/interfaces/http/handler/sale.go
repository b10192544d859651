package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/comercia/backend/internal/interfaces/http/dto"
	"github.com/comercia/backend/internal/interfaces/http/middleware"
)

// SaleHandler handles sale posting and cancellation endpoints
type SaleHandler struct {
	BaseHandler
	saleService *appsales.Service
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *appsales.Service) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// SaleLineRequest is one requested line of a sale
type SaleLineRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"min=0"`
	Discount  float64 `json:"discount" binding:"min=0"`
	Total     float64 `json:"total" binding:"min=0"`
}

// CreateSaleRequest is the request body for posting a sale
type CreateSaleRequest struct {
	CustomerID    *string           `json:"customer_id" binding:"omitempty,uuid"`
	Lines         []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Subtotal      float64           `json:"subtotal" binding:"min=0"`
	Discount      float64           `json:"discount" binding:"min=0"`
	Tax           float64           `json:"tax" binding:"min=0"`
	Total         float64           `json:"total" binding:"min=0"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	AmountPaid    float64           `json:"amount_paid" binding:"min=0"`
	Notes         string            `json:"notes" binding:"max=1000"`
	RedeemPoints  int64             `json:"redeem_points" binding:"min=0"`
}

// CancelSaleRequest is the request body for cancelling a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Create posts a new sale
func (h *SaleHandler) Create(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appsales.CreateSaleInput{
		Lines:         make([]appsales.SaleLineInput, 0, len(req.Lines)),
		Subtotal:      decimal.NewFromFloat(req.Subtotal),
		Discount:      decimal.NewFromFloat(req.Discount),
		Tax:           decimal.NewFromFloat(req.Tax),
		Total:         decimal.NewFromFloat(req.Total),
		PaymentMethod: sales.PaymentMethod(req.PaymentMethod),
		AmountPaid:    decimal.NewFromFloat(req.AmountPaid),
		Notes:         req.Notes,
		RedeemPoints:  req.RedeemPoints,
	}

	if req.CustomerID != nil && *req.CustomerID != "" {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		input.CustomerID = &customerID
	}

	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		input.Lines = append(input.Lines, appsales.SaleLineInput{
			ProductID: productID,
			Quantity:  decimal.NewFromFloat(line.Quantity),
			UnitPrice: decimal.NewFromFloat(line.UnitPrice),
			Discount:  decimal.NewFromFloat(line.Discount),
			Total:     decimal.NewFromFloat(line.Total),
		})
	}

	resp, err := h.saleService.CreateSale(c.Request.Context(), identity, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Cancel voids a posted sale and reverses its effects
func (h *SaleHandler) Cancel(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}
	saleID := uuid.MustParse(uri.ID)

	var req CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.saleService.CancelSale(c.Request.Context(), identity, saleID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Get returns one sale with its items
func (h *SaleHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	resp, err := h.saleService.GetSale(c.Request.Context(), tenantID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a page of sales for the tenant
func (h *SaleHandler) List(c *gin.Context) {
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
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}

	page, err := h.saleService.ListSales(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// identity resolves the authenticated caller for write operations
func (h *SaleHandler) identity(c *gin.Context) (appsales.Identity, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return appsales.Identity{}, false
	}
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return appsales.Identity{}, false
	}
	return appsales.Identity{
		TenantID: tenantID,
		UserID:   userID,
		UserName: middleware.GetJWTUsername(c),
		ClientIP: c.ClientIP(),
	}, true
}
