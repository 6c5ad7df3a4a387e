// controllers/product.go
package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/utils"
)

// ProductController is the catalog read surface: listings, categories
// and single-product fetches. Catalog writes and search ranking live
// elsewhere.
type ProductController struct {
	Collection *mongo.Collection
	Log        *zap.Logger
}

// NewProductController creates a new ProductController.
func NewProductController(client *mongo.Client, log *zap.Logger) *ProductController {
	return &ProductController{
		Collection: utils.Collection(client, "products"),
		Log:        log,
	}
}

// Categories handles GET /product/categories.
func (pc *ProductController) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	cursor, err := pc.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		pc.Log.Error("category aggregation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	defer cursor.Close(ctx)

	categories := []models.CategoryCount{}
	if err := cursor.All(ctx, &categories); err != nil {
		pc.Log.Error("category decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// List handles GET /product with optional category and sellerEmail
// filters.
func (pc *ProductController) List(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if sellerEmail := r.URL.Query().Get("sellerEmail"); sellerEmail != "" {
		filter["sellerEmail"] = sellerEmail
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := pc.Collection.Find(ctx, filter, opts)
	if err != nil {
		pc.Log.Error("product list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		pc.Log.Error("product decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GetByID handles GET /product/{id}.
func (pc *ProductController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var product models.Product
	err = pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		pc.Log.Error("product fetch failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}
