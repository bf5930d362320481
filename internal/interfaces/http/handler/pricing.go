package handler

import (
	"github.com/gin-gonic/gin"

	apppricing "github.com/commercehub/backend/internal/application/pricing"
	"github.com/commercehub/backend/internal/domain/pricing"
	"github.com/commercehub/backend/internal/interfaces/http/dto"
	"github.com/commercehub/backend/internal/interfaces/http/middleware"
)

// PricingHandler serves price quote requests
type PricingHandler struct {
	BaseHandler
	calculator *apppricing.PriceCalculator
}

// NewPricingHandler creates a pricing handler
func NewPricingHandler(calculator *apppricing.PriceCalculator) *PricingHandler {
	return &PricingHandler{calculator: calculator}
}

// Quote calculates the effective price for one product line
// POST /api/v1/pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	tenantID := middleware.GetTenantID(c)
	pctx, err := req.ToPriceContext(tenantID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.calculator.CalculatePrice(c.Request.Context(), pctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewQuoteResponse(pctx.ProductID, result))
}

// QuoteBatch calculates effective prices for several product lines.
// Lines that fail to price are absent from the response map.
// POST /api/v1/pricing/quotes
func (h *PricingHandler) QuoteBatch(c *gin.Context) {
	var req dto.BatchQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	tenantID := middleware.GetTenantID(c)
	contexts := make([]pricing.PriceContext, 0, len(req.Items))
	for _, item := range req.Items {
		pctx, err := item.ToPriceContext(tenantID)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		contexts = append(contexts, *pctx)
	}

	results := h.calculator.CalculatePrices(c.Request.Context(), contexts)

	quotes := make(map[string]dto.QuoteResponse, len(results))
	for productID, result := range results {
		quotes[productID.String()] = dto.NewQuoteResponse(productID, result)
	}
	h.Success(c, dto.BatchQuoteResponse{Quotes: quotes})
}
