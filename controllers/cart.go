// controllers/cart.go
package controllers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/realtime"
	"unityshop-backend/utils"
)

// CartController owns cart mutations and the enriched cart read.
type CartController struct {
	Carts    *mongo.Collection
	Hub      *realtime.Hub
	Log      *zap.Logger
	validate *validator.Validate
}

// NewCartController creates a new CartController.
func NewCartController(client *mongo.Client, hub *realtime.Hub, log *zap.Logger) *CartController {
	return &CartController{
		Carts:    utils.Collection(client, "carts"),
		Hub:      hub,
		Log:      log,
		validate: validator.New(),
	}
}

type cartMutationRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	// Quantity is a signed delta on add and an absolute value on
	// update. Zero is rejected either way.
	Quantity int `json:"quantity" validate:"required"`
}

// cartAction decides what a signed delta does to an existing item row.
type cartAction int

const (
	actionIncrement cartAction = iota
	actionRemove
)

// nextCartAction keeps the quantity floor: any delta that would leave
// the row below 1 pulls the whole row instead of storing 0 or a
// negative.
func nextCartAction(current, delta int) cartAction {
	if current+delta < 1 {
		return actionRemove
	}
	return actionIncrement
}

// GetCart returns the cart joined with live product data. A missing
// cart is an empty list, not an error, so the client's empty-cart
// rendering stays trivial.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "items.productId",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$project", Value: bson.M{
			"productId":   "$items.productId",
			"quantity":    "$items.quantity",
			"name":        "$product.name",
			"price":       "$product.price",
			"stock":       "$product.stock",
			"image":       "$product.image",
			"category":    "$product.category",
			"sellerId":    "$product.sellerId",
			"sellerEmail": "$product.sellerEmail",
			"sellerName":  "$product.sellerName",
		}}},
	}

	cursor, err := cc.Carts.Aggregate(ctx, pipeline)
	if err != nil {
		cc.Log.Error("cart aggregation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	defer cursor.Close(ctx)

	lines := []models.CartLine{}
	if err := cursor.All(ctx, &lines); err != nil {
		cc.Log.Error("cart decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	respondJSON(w, http.StatusOK, lines)
}

// AddToCart applies a signed quantity delta to an item row, inserting
// the row (and upserting the cart) when absent. A delta that would
// drop the quantity below 1 removes the row. Each mutation is a single
// atomic update so concurrent tabs cannot lose increments; the
// existence check before it is a narrow, accepted race because cart
// quantity is advisory, not inventory-authoritative.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := cc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "userId, productId and a non-zero quantity are required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	itemQuery := bson.M{"userId": userID, "items.productId": productID}

	var cart models.Cart
	err = cc.Carts.FindOne(ctx, itemQuery).Decode(&cart)
	switch {
	case err == nil:
		current, _ := cart.ItemQuantity(productID)
		if nextCartAction(current, req.Quantity) == actionRemove {
			_, err = cc.Carts.UpdateOne(ctx,
				bson.M{"userId": userID},
				bson.M{
					"$pull": bson.M{"items": bson.M{"productId": productID}},
					"$set":  bson.M{"updatedAt": time.Now()},
				},
			)
			if err != nil {
				cc.Log.Error("cart pull failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Failed to update cart")
				return
			}
			cc.emitCartUpdated(req.UserID)
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"message": "Item removed from cart!",
			})
			return
		}

		_, err = cc.Carts.UpdateOne(ctx, itemQuery, bson.M{
			"$inc": bson.M{"items.$.quantity": req.Quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			cc.Log.Error("cart increment failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to update cart")
			return
		}

	case err == mongo.ErrNoDocuments:
		// New row; the cart document itself is upserted on first add.
		_, err = cc.Carts.UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{
				"$push": bson.M{"items": models.CartItem{ProductID: productID, Quantity: req.Quantity}},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			cc.Log.Error("cart upsert failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to update cart")
			return
		}

	default:
		cc.Log.Error("cart lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	cc.emitCartUpdated(req.UserID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cart Updated!",
	})
}

// UpdateQuantity overwrites an item row's quantity. Values below 1 are
// a validation error; clients remove instead.
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := cc.validate.Struct(req); err != nil || req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := cc.Carts.UpdateOne(ctx,
		bson.M{"userId": userID, "items.productId": productID},
		bson.M{"$set": bson.M{"items.$.quantity": req.Quantity, "updatedAt": time.Now()}},
	)
	if err != nil {
		cc.Log.Error("cart set quantity failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if result.MatchedCount == 0 {
		respondError(w, http.StatusNotFound, "item not in cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cart Updated!",
	})
}

// RemoveFromCart pulls an item row unconditionally. Removing an absent
// item is a no-op success.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"userId" validate:"required"`
		ProductID string `json:"productId" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := cc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "userId and productId are required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := cc.Carts.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$pull": bson.M{"items": bson.M{"productId": productID}}},
	)
	if err != nil {
		cc.Log.Error("cart remove failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matchedCount":  result.MatchedCount,
		"modifiedCount": result.ModifiedCount,
	})
}

func (cc *CartController) emitCartUpdated(userID string) {
	if cc.Hub == nil {
		return
	}
	cc.Hub.Emit(userID, "cart-updated", map[string]string{"message": "Item added to cart"})
}
