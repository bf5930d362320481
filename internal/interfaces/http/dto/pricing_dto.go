package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// QuoteRequest asks for the effective price of one product line
type QuoteRequest struct {
	ProductID        string            `json:"product_id" binding:"required,uuid"`
	CategoryID       string            `json:"category_id" binding:"omitempty,uuid"`
	CustomerID       string            `json:"customer_id" binding:"omitempty,uuid"`
	CustomerTierID   string            `json:"customer_tier_id" binding:"omitempty,uuid"`
	Quantity         string            `json:"quantity" binding:"required,decimal"`
	BasePrice        string            `json:"base_price" binding:"required,decimal"`
	UnitCost         string            `json:"unit_cost" binding:"omitempty,decimal"`
	MinMarginPercent string            `json:"min_margin_percent" binding:"omitempty,decimal"`
	Date             string            `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Attributes       map[string]string `json:"attributes" binding:"omitempty"`
}

// BatchQuoteRequest asks for effective prices of several product lines
type BatchQuoteRequest struct {
	Items []QuoteRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// ToPriceContext converts the request into a domain price context
func (r *QuoteRequest) ToPriceContext(tenantID uuid.UUID) (*pricing.PriceContext, error) {
	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return nil, err
	}
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return nil, err
	}
	basePrice, err := decimal.NewFromString(r.BasePrice)
	if err != nil {
		return nil, err
	}

	pctx := &pricing.PriceContext{
		TenantID:   tenantID,
		ProductID:  productID,
		Quantity:   quantity,
		BasePrice:  basePrice,
		Attributes: r.Attributes,
	}

	if r.CategoryID != "" {
		id, err := uuid.Parse(r.CategoryID)
		if err != nil {
			return nil, err
		}
		pctx.CategoryID = &id
	}
	if r.CustomerID != "" {
		id, err := uuid.Parse(r.CustomerID)
		if err != nil {
			return nil, err
		}
		pctx.CustomerID = &id
	}
	if r.CustomerTierID != "" {
		id, err := uuid.Parse(r.CustomerTierID)
		if err != nil {
			return nil, err
		}
		pctx.CustomerTierID = &id
	}
	if r.UnitCost != "" {
		cost, err := decimal.NewFromString(r.UnitCost)
		if err != nil {
			return nil, err
		}
		pctx.UnitCost = &cost
	}
	if r.MinMarginPercent != "" {
		margin, err := decimal.NewFromString(r.MinMarginPercent)
		if err != nil {
			return nil, err
		}
		pctx.MinMarginPercent = margin
	}
	if r.Date != "" {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, err
		}
		pctx.Date = date
	}

	return pctx, nil
}

// AppliedRuleResponse reports one rule's contribution to a quote
type AppliedRuleResponse struct {
	RuleID         string `json:"rule_id"`
	Name           string `json:"name"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  string `json:"discount_value"`
	DiscountAmount string `json:"discount_amount"`
}

// QuoteResponse is the effective price for one product line
type QuoteResponse struct {
	ProductID       string                `json:"product_id"`
	BasePrice       string                `json:"base_price"`
	FinalPrice      string                `json:"final_price"`
	DiscountAmount  string                `json:"discount_amount"`
	DiscountPercent string                `json:"discount_percent"`
	MarginPercent   string                `json:"margin_percent"`
	AppliedRules    []AppliedRuleResponse `json:"applied_rules"`
	CalculatedAt    time.Time             `json:"calculated_at"`
}

// NewQuoteResponse maps a calculation result to the API shape
func NewQuoteResponse(productID uuid.UUID, result *pricing.PriceCalculationResult) QuoteResponse {
	applied := make([]AppliedRuleResponse, len(result.AppliedRules))
	for i, rule := range result.AppliedRules {
		applied[i] = AppliedRuleResponse{
			RuleID:         rule.RuleID.String(),
			Name:           rule.Name,
			DiscountType:   rule.DiscountType.String(),
			DiscountValue:  rule.DiscountValue.String(),
			DiscountAmount: rule.DiscountAmount.String(),
		}
	}
	return QuoteResponse{
		ProductID:       productID.String(),
		BasePrice:       result.BasePrice.String(),
		FinalPrice:      result.FinalPrice.String(),
		DiscountAmount:  result.DiscountAmount.String(),
		DiscountPercent: result.DiscountPercent.String(),
		MarginPercent:   result.MarginPercent.String(),
		AppliedRules:    applied,
		CalculatedAt:    result.CalculatedAt,
	}
}

// BatchQuoteResponse maps product IDs to their quotes. Items that failed
// to price are absent.
type BatchQuoteResponse struct {
	Quotes map[string]QuoteResponse `json:"quotes"`
}
