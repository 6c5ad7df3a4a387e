package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"unityshop-backend/models"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func activePromo(code, promoType string, value float64) *models.PromoCode {
	return &models.PromoCode{
		Code:        code,
		Type:        promoType,
		Value:       value,
		Description: "test promo",
		IsActive:    true,
	}
}

func TestQuotePromoPercentage(t *testing.T) {
	now := time.Now()

	quote, rejection := quotePromo(activePromo("SAVE10", models.PromoPercentage, 10), 200.00, now)
	require.Empty(t, rejection)
	require.NotNil(t, quote)
	assert.True(t, quote.Valid)
	assert.Equal(t, 20.00, quote.Discount)
	assert.Equal(t, "SAVE10", quote.Code)
}

func TestQuotePromoPercentageRoundsToTwoDecimals(t *testing.T) {
	quote, rejection := quotePromo(activePromo("SAVE15", models.PromoPercentage, 15), 33.33, time.Now())
	require.Empty(t, rejection)
	assert.Equal(t, 5.00, quote.Discount)
}

func TestQuotePromoFixedNeverExceedsSubtotal(t *testing.T) {
	quote, rejection := quotePromo(activePromo("FIXED20", models.PromoFixed, 20), 5.00, time.Now())
	require.Empty(t, rejection)
	assert.Equal(t, 5.00, quote.Discount)

	quote, rejection = quotePromo(activePromo("FIXED20", models.PromoFixed, 20), 100.00, time.Now())
	require.Empty(t, rejection)
	assert.Equal(t, 20.00, quote.Discount)
}

func TestQuotePromoRejectionLadder(t *testing.T) {
	now := time.Now()
	expired := timePtr(now.Add(-time.Hour))

	tests := []struct {
		name      string
		promo     *models.PromoCode
		subtotal  float64
		rejection string
	}{
		{
			name: "inactive",
			promo: &models.PromoCode{
				Code: "OLD", Type: models.PromoPercentage, Value: 10,
				IsActive: false,
			},
			subtotal:  100,
			rejection: "This promo code is no longer active.",
		},
		{
			name: "expired",
			promo: &models.PromoCode{
				Code: "EXP", Type: models.PromoPercentage, Value: 10,
				IsActive: true, ExpiresAt: expired,
			},
			subtotal:  100,
			rejection: "This promo code has expired.",
		},
		{
			name: "expired wins over usage limit",
			promo: &models.PromoCode{
				Code: "EXPLIMIT", Type: models.PromoPercentage, Value: 10,
				IsActive: true, ExpiresAt: expired,
				MaxUses: intPtr(5), UsedCount: 5,
			},
			subtotal:  100,
			rejection: "This promo code has expired.",
		},
		{
			name: "usage limit reached",
			promo: &models.PromoCode{
				Code: "LIMIT", Type: models.PromoPercentage, Value: 10,
				IsActive: true, MaxUses: intPtr(5), UsedCount: 5,
			},
			subtotal:  100,
			rejection: "This promo code has reached its usage limit.",
		},
		{
			name: "nil maxUses means unlimited",
			promo: &models.PromoCode{
				Code: "UNLIMITED", Type: models.PromoPercentage, Value: 10,
				IsActive: true, MaxUses: nil, UsedCount: 100000,
			},
			subtotal:  100,
			rejection: "",
		},
		{
			name: "minimum order not met",
			promo: &models.PromoCode{
				Code: "MIN50", Type: models.PromoPercentage, Value: 10,
				IsActive: true, MinOrder: 50,
			},
			subtotal:  49.99,
			rejection: "A minimum order of $50.00 is required for this code.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, rejection := quotePromo(tt.promo, tt.subtotal, now)
			assert.Equal(t, tt.rejection, rejection)
			if tt.rejection == "" {
				require.NotNil(t, quote)
				assert.True(t, quote.Valid)
			} else {
				assert.Nil(t, quote)
			}
		})
	}
}

func TestPromoUsageFilterSkipsExhaustedCodes(t *testing.T) {
	filter := promoUsageFilter(" save10 ")
	assert.Equal(t, "SAVE10", filter["code"])

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"maxUses": nil}, or[0])
	assert.Equal(t, bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}}, or[1])
}

func TestPromoUsageUpdateFlipsActiveAtLimit(t *testing.T) {
	update := promoUsageUpdate()
	require.Len(t, update, 1)

	stage, ok := update[0].(bson.M)
	require.True(t, ok)
	set, ok := stage["$set"].(bson.M)
	require.True(t, ok)

	next := bson.M{"$add": bson.A{"$usedCount", 1}}
	assert.Equal(t, next, set["usedCount"])

	// isActive comes from a conditional on the incremented counter:
	// false on the use that reaches maxUses, otherwise unchanged.
	active, ok := set["isActive"].(bson.M)
	require.True(t, ok)
	cond, ok := active["$cond"].(bson.A)
	require.True(t, ok)
	require.Len(t, cond, 3)
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"$ne": bson.A{"$maxUses", nil}},
		bson.M{"$gte": bson.A{next, "$maxUses"}},
	}}, cond[0])
	assert.Equal(t, false, cond[1])
	assert.Equal(t, "$isActive", cond[2])
}

func TestQuotePromoHidesInternalFields(t *testing.T) {
	promo := activePromo("SAVE10", models.PromoPercentage, 10)
	promo.UsedCount = 3
	promo.MaxUses = intPtr(10)

	quote, rejection := quotePromo(promo, 100, time.Now())
	require.Empty(t, rejection)

	// The quote type itself only carries public fields; this pins the
	// shape so internal counters never leak into it.
	assert.Equal(t, models.PromoQuote{
		Valid:       true,
		Discount:    10.00,
		Description: "test promo",
		Code:        "SAVE10",
	}, *quote)
}
