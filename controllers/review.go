// controllers/review.go
package controllers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/utils"
)

const (
	reviewPageLimitDefault = 5
	reviewPageLimitMax     = 20
	reviewMaxImages        = 5
)

// ReviewController owns product reviews: one per (product, user),
// enforced by a unique index, with the product's rating summary
// recalculated after every write.
type ReviewController struct {
	Reviews  *mongo.Collection
	Products *mongo.Collection
	Log      *zap.Logger
	validate *validator.Validate
}

// NewReviewController creates a new ReviewController.
func NewReviewController(client *mongo.Client, log *zap.Logger) *ReviewController {
	return &ReviewController{
		Reviews:  utils.Collection(client, "reviews"),
		Products: utils.Collection(client, "products"),
		Log:      log,
		validate: validator.New(),
	}
}

// clampPagination parses page/limit query values into safe bounds.
func clampPagination(pageStr, limitStr string) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = reviewPageLimitDefault
	}
	if limit > reviewPageLimitMax {
		limit = reviewPageLimitMax
	}
	return page, limit
}

// recalcProductRating recomputes the product's average rating and
// review count and writes them back onto the product document.
func (rc *ReviewController) recalcProductRating(ctx context.Context, productID primitive.ObjectID) (models.ProductRatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"averageRating": bson.M{"$avg": "$rating"},
			"totalReviews":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := rc.Reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ProductRatingStats{}, err
	}
	defer cursor.Close(ctx)

	var stats models.ProductRatingStats
	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return models.ProductRatingStats{}, err
		}
		stats.AverageRating = math.Round(stats.AverageRating*10) / 10
	}

	_, err = rc.Products.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{"$set": bson.M{
		"rating":  stats.AverageRating,
		"reviews": stats.TotalReviews,
	}})
	return stats, err
}

// Create handles POST /reviews.
func (rc *ReviewController) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string   `json:"productId" validate:"required"`
		UserID    string   `json:"userId" validate:"required"`
		UserName  string   `json:"userName"`
		UserEmail string   `json:"userEmail" validate:"omitempty,email"`
		UserImage string   `json:"userImage"`
		Rating    float64  `json:"rating" validate:"required,min=1,max=5"`
		Comment   string   `json:"comment"`
		Images    []string `json:"images" validate:"max=5,dive,url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := rc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "productId, userId and a rating between 1 and 5 are required")
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	count, err := rc.Products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		rc.Log.Error("product check failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create review")
		return
	}
	if count == 0 {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	userName := req.UserName
	if userName == "" {
		userName = "Anonymous"
	}
	images := req.Images
	if images == nil {
		images = []string{}
	}
	review := models.Review{
		ProductID: productID,
		UserID:    req.UserID,
		UserName:  userName,
		UserEmail: req.UserEmail,
		UserImage: req.UserImage,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    images,
		CreatedAt: time.Now(),
	}

	result, err := rc.Reviews.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			respondError(w, http.StatusConflict, "You have already reviewed this product")
			return
		}
		rc.Log.Error("review insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create review")
		return
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}

	stats, err := rc.recalcProductRating(ctx, productID)
	if err != nil {
		rc.Log.Warn("rating recalc failed", zap.String("productId", productID.Hex()), zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"review":       review,
		"productStats": stats,
	})
}

// List handles GET /reviews/{productId}?page=&limit=.
func (rc *ReviewController) List(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	page, limit := clampPagination(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	skip := int64((page - 1) * limit)

	ctx, cancel := requestContext(r)
	defer cancel()

	filter := bson.M{"productId": productID}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := rc.Reviews.Find(ctx, filter, opts)
	if err != nil {
		rc.Log.Error("review list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		rc.Log.Error("review decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}

	totalCount, err := rc.Reviews.CountDocuments(ctx, filter)
	if err != nil {
		rc.Log.Error("review count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"pagination": map[string]interface{}{
			"page":       page,
			"limit":      limit,
			"totalCount": totalCount,
			"totalPages": totalPages,
			"hasMore":    int64(page*limit) < totalCount,
		},
	})
}

// Update handles PUT /reviews/{id}. Only the owning user can update,
// and only rating, comment and images move.
func (rc *ReviewController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var req struct {
		UserID  string    `json:"userId" validate:"required"`
		Rating  *float64  `json:"rating" validate:"omitempty,min=1,max=5"`
		Comment *string   `json:"comment"`
		Images  *[]string `json:"images" validate:"omitempty,max=5,dive,url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := rc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "userId is required and rating must be between 1 and 5")
		return
	}

	set := bson.M{}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	}
	if req.Comment != nil {
		set["comment"] = *req.Comment
	}
	if req.Images != nil {
		images := *req.Images
		if len(images) > reviewMaxImages {
			images = images[:reviewMaxImages]
		}
		set["images"] = images
	}
	if len(set) == 0 {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var existing models.Review
	err = rc.Reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": req.UserID},
		bson.M{"$set": set},
	).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Review not found or unauthorized")
		return
	}
	if err != nil {
		rc.Log.Error("review update failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update review")
		return
	}

	stats, err := rc.recalcProductRating(ctx, existing.ProductID)
	if err != nil {
		rc.Log.Warn("rating recalc failed", zap.String("productId", existing.ProductID.Hex()), zap.Error(err))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"productStats": stats,
	})
}

// Delete handles DELETE /reviews/{id}?userId=.
func (rc *ReviewController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid review id")
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var existing models.Review
	err = rc.Reviews.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Review not found or unauthorized")
		return
	}
	if err != nil {
		rc.Log.Error("review delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	if _, err := rc.recalcProductRating(ctx, existing.ProductID); err != nil {
		rc.Log.Warn("rating recalc failed", zap.String("productId", existing.ProductID.Hex()), zap.Error(err))
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
