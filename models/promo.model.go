package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Promo code types.
const (
	PromoPercentage = "percentage"
	PromoFixed      = "fixed"
)

// PromoCode is a discount code. Code is stored normalized (trimmed,
// uppercase). MaxUses nil means unlimited; UsedCount only moves up,
// through the single increment path, which also flips IsActive off
// once the limit is reached.
type PromoCode struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code        string             `bson:"code" json:"code"`
	Type        string             `bson:"type" json:"type"`
	Value       float64            `bson:"value" json:"value"`
	Description string             `bson:"description" json:"description"`
	MinOrder    float64            `bson:"minOrder" json:"minOrder"`
	MaxUses     *int               `bson:"maxUses" json:"maxUses"`
	UsedCount   int                `bson:"usedCount" json:"usedCount"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	ExpiresAt   *time.Time         `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// NormalizePromoCode maps user input to the stored code form.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPromoCode builds an active, unused promo code with the code
// normalized.
func NewPromoCode(code, promoType string, value, minOrder float64, maxUses *int, expiresAt *time.Time, description string) *PromoCode {
	return &PromoCode{
		Code:        NormalizePromoCode(code),
		Type:        promoType,
		Value:       value,
		Description: description,
		MinOrder:    minOrder,
		MaxUses:     maxUses,
		UsedCount:   0,
		IsActive:    true,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}
}

// PromoQuote is the public result of validating a code against a
// subtotal. It never carries internal fields such as usage counters.
type PromoQuote struct {
	Valid       bool    `json:"valid"`
	Discount    float64 `json:"discount"`
	Description string  `json:"description"`
	Code        string  `json:"code"`
}
