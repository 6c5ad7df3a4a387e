// controllers/promo.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/utils"
)

// PromoController owns promo code administration, validation quotes
// and the post-payment usage increment.
type PromoController struct {
	Collection    *mongo.Collection
	Notifications *NotificationController
	Log           *zap.Logger
	validate      *validator.Validate
}

// NewPromoController creates a new PromoController.
func NewPromoController(client *mongo.Client, notifications *NotificationController, log *zap.Logger) *PromoController {
	return &PromoController{
		Collection:    utils.Collection(client, "promoCodes"),
		Notifications: notifications,
		Log:           log,
		validate:      validator.New(),
	}
}

// quotePromo runs the rejection ladder against a fetched code. The
// order is fixed: inactive, expired, usage limit, minimum order. The
// not-found rung is the caller's, before this is reached. On success
// it returns a quote that exposes no internal fields.
func quotePromo(p *models.PromoCode, subtotal float64, now time.Time) (*models.PromoQuote, string) {
	if !p.IsActive {
		return nil, "This promo code is no longer active."
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return nil, "This promo code has expired."
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return nil, "This promo code has reached its usage limit."
	}
	if p.MinOrder > 0 && subtotal < p.MinOrder {
		return nil, fmt.Sprintf("A minimum order of $%.2f is required for this code.", p.MinOrder)
	}

	sub := decimal.NewFromFloat(subtotal)
	value := decimal.NewFromFloat(p.Value)

	var discount decimal.Decimal
	if p.Type == models.PromoPercentage {
		discount = sub.Mul(value).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		// Fixed discounts never exceed the subtotal.
		discount = decimal.Min(value, sub)
	}

	return &models.PromoQuote{
		Valid:       true,
		Discount:    discount.InexactFloat64(),
		Description: p.Description,
		Code:        p.Code,
	}, ""
}

// Validate handles POST /promo/validate. Rejections are 200 with
// valid=false: the client renders them inline, not as failures.
func (pc *PromoController) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string  `json:"code"`
		Subtotal float64 `json:"subtotal"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Code == "" || req.Subtotal < 0 {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"valid": false, "error": "Invalid request."})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var promo models.PromoCode
	err := pc.Collection.FindOne(ctx, bson.M{"code": models.NormalizePromoCode(req.Code)}).Decode(&promo)
	if err == mongo.ErrNoDocuments {
		respondJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": "Invalid promo code."})
		return
	}
	if err != nil {
		pc.Log.Error("promo lookup failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"valid": false, "error": "Something went wrong."})
		return
	}

	quote, rejection := quotePromo(&promo, req.Subtotal, time.Now())
	if quote == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": rejection})
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// promoUsageFilter matches a code only while it has uses left, so an
// exhausted code is never incremented past its limit.
func promoUsageFilter(code string) bson.M {
	return bson.M{
		"code": models.NormalizePromoCode(code),
		"$or": bson.A{
			bson.M{"maxUses": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}},
		},
	}
}

// promoUsageUpdate bumps the counter and flips isActive off on the use
// that reaches the limit, evaluated against the stored document in one
// operation.
func promoUsageUpdate() bson.A {
	next := bson.M{"$add": bson.A{"$usedCount", 1}}
	return bson.A{
		bson.M{"$set": bson.M{
			"usedCount": next,
			"isActive": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$ne": bson.A{"$maxUses", nil}},
					bson.M{"$gte": bson.A{next, "$maxUses"}},
				}},
				false,
				"$isActive",
			}},
		}},
	}
}

// IncrementUsage bumps the usage counter after a confirmed payment and
// deactivates the code once it reaches its limit. Never called at
// validation time, so abandoned checkouts consume nothing. Unknown or
// exhausted codes match nothing and are a no-op; because filter and
// update run as a single atomic operation, concurrent finalizes cannot
// push the counter past maxUses or leave an exhausted code active.
func (pc *PromoController) IncrementUsage(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	_, err := pc.Collection.UpdateOne(ctx, promoUsageFilter(code), promoUsageUpdate())
	return err
}

type promoCreateRequest struct {
	Code        string     `json:"code" validate:"required"`
	Type        string     `json:"type" validate:"required,oneof=percentage fixed"`
	Value       float64    `json:"value" validate:"required,gt=0"`
	Description string     `json:"description"`
	MinOrder    float64    `json:"minOrder" validate:"gte=0"`
	MaxUses     *int       `json:"maxUses" validate:"omitempty,gt=0"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// CreateAdmin handles POST /promo/admin.
func (pc *PromoController) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req promoCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := pc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "code, type, and value are required")
		return
	}
	if req.Type == models.PromoPercentage && (req.Value <= 0 || req.Value > 100) {
		respondError(w, http.StatusBadRequest, "Percentage value must be between 1 and 100.")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	promo := models.NewPromoCode(req.Code, req.Type, req.Value, req.MinOrder, req.MaxUses, req.ExpiresAt, req.Description)

	count, err := pc.Collection.CountDocuments(ctx, bson.M{"code": promo.Code})
	if err != nil {
		pc.Log.Error("promo duplicate check failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create promo code.")
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, fmt.Sprintf("Promo code %q already exists.", promo.Code))
		return
	}

	result, err := pc.Collection.InsertOne(ctx, promo)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			respondError(w, http.StatusConflict, fmt.Sprintf("Promo code %q already exists.", promo.Code))
			return
		}
		pc.Log.Error("promo insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create promo code.")
		return
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		promo.ID = id
	}

	// Fire-and-forget announcement to everyone connected.
	if pc.Notifications != nil {
		pc.Notifications.BroadcastCoupon(promo.Code, promo.Value)
	}

	respondJSON(w, http.StatusCreated, promo)
}

// ListAdmin handles GET /promo/admin.
func (pc *PromoController) ListAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := pc.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		pc.Log.Error("promo list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch promo codes.")
		return
	}
	defer cursor.Close(ctx)

	promos := []models.PromoCode{}
	if err := cursor.All(ctx, &promos); err != nil {
		pc.Log.Error("promo decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch promo codes.")
		return
	}
	respondJSON(w, http.StatusOK, promos)
}

// UpdateAdmin handles PATCH /promo/admin/{id}. The typed partial
// update keeps usedCount and createdAt out of reach.
func (pc *PromoController) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid promo id")
		return
	}

	var req struct {
		Code        *string    `json:"code"`
		Type        *string    `json:"type"`
		Value       *float64   `json:"value"`
		Description *string    `json:"description"`
		MinOrder    *float64   `json:"minOrder"`
		MaxUses     *int       `json:"maxUses"`
		IsActive    *bool      `json:"isActive"`
		ExpiresAt   *time.Time `json:"expiresAt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{}
	if req.Code != nil {
		set["code"] = models.NormalizePromoCode(*req.Code)
	}
	if req.Type != nil {
		if *req.Type != models.PromoPercentage && *req.Type != models.PromoFixed {
			respondError(w, http.StatusBadRequest, `type must be "percentage" or "fixed".`)
			return
		}
		set["type"] = *req.Type
	}
	if req.Value != nil {
		set["value"] = *req.Value
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.MinOrder != nil {
		set["minOrder"] = *req.MinOrder
	}
	if req.MaxUses != nil {
		set["maxUses"] = *req.MaxUses
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.ExpiresAt != nil {
		set["expiresAt"] = *req.ExpiresAt
	}
	if len(set) == 0 {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := pc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		pc.Log.Error("promo update failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update promo code.")
		return
	}
	if result.MatchedCount == 0 {
		respondError(w, http.StatusNotFound, "Promo code not found.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"modifiedCount": result.ModifiedCount,
	})
}

// DeleteAdmin handles DELETE /promo/admin/{id}.
func (pc *PromoController) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid promo id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		pc.Log.Error("promo delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete promo code.")
		return
	}
	if result.DeletedCount == 0 {
		respondError(w, http.StatusNotFound, "Promo code not found.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
