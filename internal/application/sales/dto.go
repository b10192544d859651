package sales

import (
	"time"

	"github.com/comercia/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity carries the already-authenticated caller context. It is
// resolved by the HTTP layer and passed explicitly to every core call;
// the core never reads ambient state.
type Identity struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	UserName string
	ClientIP string
}

// SaleLineInput is one requested line of a sale
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// CreateSaleInput is the posting request for one point-of-sale transaction
type CreateSaleInput struct {
	CustomerID    *uuid.UUID
	Lines         []SaleLineInput
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod sales.PaymentMethod
	AmountPaid    decimal.Decimal
	Notes         string
	RedeemPoints  int64
}

// SaleLineItemResponse is one line of a persisted sale
type SaleLineItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// SaleCustomerResponse is the expanded customer on a sale aggregate
type SaleCustomerResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	LoyaltyPoints int64     `json:"loyalty_points"`
}

// SaleResponse is the persisted sale aggregate returned to callers
type SaleResponse struct {
	ID            uuid.UUID              `json:"id"`
	ReceiptNumber string                 `json:"receipt_number"`
	SeriesLabel   string                 `json:"series_label"`
	FiscalNumber  int64                  `json:"fiscal_number"`
	HashCode      string                 `json:"hash_code"`
	Customer      *SaleCustomerResponse  `json:"customer,omitempty"`
	UserID        uuid.UUID              `json:"user_id"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	Discount      decimal.Decimal        `json:"discount"`
	Tax           decimal.Decimal        `json:"tax"`
	Total         decimal.Decimal        `json:"total"`
	PaymentMethod sales.PaymentMethod    `json:"payment_method"`
	AmountPaid    decimal.Decimal        `json:"amount_paid"`
	Change        decimal.Decimal        `json:"change"`
	Notes         string                 `json:"notes,omitempty"`
	PointsEarned  int64                  `json:"points_earned"`
	PointsRedeemed int64                 `json:"points_redeemed"`
	Items         []SaleLineItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"created_at"`
}

// CancelResult reports a completed cancellation
type CancelResult struct {
	SaleID        uuid.UUID `json:"sale_id"`
	ReceiptNumber string    `json:"receipt_number"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// ToSaleResponse maps the persisted aggregate to its response shape
func ToSaleResponse(sale *sales.Sale, pointsEarned, pointsRedeemed int64) *SaleResponse {
	resp := &SaleResponse{
		ID:             sale.ID,
		ReceiptNumber:  sale.ReceiptNumber,
		SeriesLabel:    sale.SeriesLabel,
		FiscalNumber:   sale.FiscalNumber,
		HashCode:       sale.HashCode,
		UserID:         sale.UserID,
		Subtotal:       sale.Subtotal,
		Discount:       sale.Discount,
		Tax:            sale.Tax,
		Total:          sale.Total,
		PaymentMethod:  sale.PaymentMethod,
		AmountPaid:     sale.AmountPaid,
		Change:         sale.Change,
		Notes:          sale.Notes,
		PointsEarned:   pointsEarned,
		PointsRedeemed: pointsRedeemed,
		Items:          make([]SaleLineItemResponse, 0, len(sale.Items)),
		CreatedAt:      sale.CreatedAt,
	}
	for _, item := range sale.Items {
		resp.Items = append(resp.Items, SaleLineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			Total:     item.Total,
		})
	}
	if sale.Customer != nil {
		resp.Customer = &SaleCustomerResponse{
			ID:            sale.Customer.ID,
			Name:          sale.Customer.Name,
			LoyaltyPoints: sale.Customer.LoyaltyPoints,
		}
	}
	return resp
}
