// controllers/order.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/utils"
)

// OrderController is the read side over paidOrders: listings and
// dashboard aggregates. Its only mutation is the status transition.
type OrderController struct {
	Orders   *mongo.Collection
	Products *mongo.Collection
	Users    *mongo.Collection
	Log      *zap.Logger
}

// NewOrderController creates a new OrderController.
func NewOrderController(client *mongo.Client, log *zap.Logger) *OrderController {
	return &OrderController{
		Orders:   utils.Collection(client, "paidOrders"),
		Products: utils.Collection(client, "products"),
		Users:    utils.Collection(client, "users"),
		Log:      log,
	}
}

// DailyStat is one bucket of the trailing 7-day series.
type DailyStat struct {
	Date    string  `json:"date"`
	Day     string  `json:"day"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

func statusCounts(orders []models.Order) map[string]int {
	counts := map[string]int{}
	for _, o := range orders {
		status := o.Status
		if status == "" {
			status = models.OrderStatusNew
		}
		counts[status]++
	}
	return counts
}

func totalRevenue(orders []models.Order) float64 {
	var sum float64
	for _, o := range orders {
		sum += o.AmountPaid
	}
	return sum
}

// last7Days buckets orders into the seven calendar days ending today.
func last7Days(orders []models.Order, now time.Time) []DailyStat {
	stats := make([]DailyStat, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 0, 1)

		bucket := DailyStat{
			Date: start.Format("2006-01-02"),
			Day:  start.Format("Mon"),
		}
		for _, o := range orders {
			if !o.CreatedAt.Before(start) && o.CreatedAt.Before(end) {
				bucket.Orders++
				bucket.Revenue += o.AmountPaid
			}
		}
		stats = append(stats, bucket)
	}
	return stats
}

func (oc *OrderController) findOrders(w http.ResponseWriter, r *http.Request, filter bson.M) ([]models.Order, bool) {
	ctx, cancel := requestContext(r)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := oc.Orders.Find(ctx, filter, opts)
	if err != nil {
		oc.Log.Error("order query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return nil, false
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		oc.Log.Error("order decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return nil, false
	}
	return orders, true
}

// List handles GET /orders?sellerEmail=|customerEmail=.
func (oc *OrderController) List(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if sellerEmail := r.URL.Query().Get("sellerEmail"); sellerEmail != "" {
		filter["sellerEmail"] = sellerEmail
	}
	if customerEmail := r.URL.Query().Get("customerEmail"); customerEmail != "" {
		filter["customerEmail"] = customerEmail
	}

	orders, ok := oc.findOrders(w, r, filter)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// SellerStats handles GET /orders/seller-stats?sellerEmail=.
func (oc *OrderController) SellerStats(w http.ResponseWriter, r *http.Request) {
	sellerEmail := r.URL.Query().Get("sellerEmail")
	if sellerEmail == "" {
		respondError(w, http.StatusBadRequest, "sellerEmail is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	totalProducts, err := oc.Products.CountDocuments(ctx, bson.M{"sellerEmail": sellerEmail})
	if err != nil {
		oc.Log.Error("product count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch seller stats")
		return
	}

	orders, ok := oc.findOrders(w, r, bson.M{"sellerEmail": sellerEmail})
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalProducts": totalProducts,
		"totalOrders":   len(orders),
		"totalRevenue":  totalRevenue(orders),
		"statusCounts":  statusCounts(orders),
		"last7Days":     last7Days(orders, time.Now()),
	})
}

// UserStats handles GET /orders/user-stats?customerEmail=.
func (oc *OrderController) UserStats(w http.ResponseWriter, r *http.Request) {
	customerEmail := r.URL.Query().Get("customerEmail")
	if customerEmail == "" {
		respondError(w, http.StatusBadRequest, "customerEmail is required")
		return
	}

	orders, ok := oc.findOrders(w, r, bson.M{"customerEmail": customerEmail})
	if !ok {
		return
	}

	counts := statusCounts(orders)
	pendingCount := counts[models.OrderStatusNew] +
		counts[models.OrderStatusProcessing] +
		counts[models.OrderStatusShipped]

	ctx, cancel := requestContext(r)
	defer cancel()

	wishlistCount := 0
	var user models.User
	if err := oc.Users.FindOne(ctx, bson.M{"email": customerEmail}).Decode(&user); err == nil {
		wishlistCount = len(user.Wishlist)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalOrders":    len(orders),
		"totalSpent":     totalRevenue(orders),
		"pendingCount":   pendingCount,
		"deliveredCount": counts[models.OrderStatusDelivered],
		"wishlistCount":  wishlistCount,
		"statusCounts":   counts,
	})
}

// PlatformStats handles GET /orders/platform-stats for the manager
// dashboard.
func (oc *OrderController) PlatformStats(w http.ResponseWriter, r *http.Request) {
	orders, ok := oc.findOrders(w, r, bson.M{})
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	totalUsers, err := oc.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		oc.Log.Error("user count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch platform stats")
		return
	}
	totalSellers, err := oc.Users.CountDocuments(ctx, bson.M{"role": models.RoleSeller})
	if err != nil {
		oc.Log.Error("seller count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch platform stats")
		return
	}
	pendingSellerRequests, err := oc.Users.CountDocuments(ctx, bson.M{"sellerRequest": "pending"})
	if err != nil {
		oc.Log.Error("seller request count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch platform stats")
		return
	}
	totalProducts, err := oc.Products.CountDocuments(ctx, bson.M{})
	if err != nil {
		oc.Log.Error("product count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch platform stats")
		return
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todaySales float64
	todayOrderCount := 0
	for _, o := range orders {
		if !o.CreatedAt.Before(todayStart) {
			todaySales += o.AmountPaid
			todayOrderCount++
		}
	}

	newUsersToday, err := oc.Users.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": todayStart}})
	if err != nil {
		oc.Log.Error("new user count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch platform stats")
		return
	}

	recentOrders := orders
	if len(recentOrders) > 10 {
		recentOrders = recentOrders[:10]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalOrders":           len(orders),
		"totalRevenue":          totalRevenue(orders),
		"totalUsers":            totalUsers,
		"totalSellers":          totalSellers,
		"totalProducts":         totalProducts,
		"pendingSellerRequests": pendingSellerRequests,
		"todaySales":            todaySales,
		"todayOrderCount":       todayOrderCount,
		"newUsersToday":         newUsersToday,
		"statusCounts":          statusCounts(orders),
		"last7Days":             last7Days(orders, now),
		"recentOrders":          recentOrders,
	})
}

// UpdateStatus handles PATCH /orders/{id}. Status is the only mutable
// order field and only moves by seller/admin action.
func (oc *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil || !models.ValidOrderStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "status must be one of New, Processing, Shipped, Delivered, Cancelled")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := oc.Orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": req.Status}})
	if err != nil {
		oc.Log.Error("order status update failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if result.MatchedCount == 0 {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"modifiedCount": result.ModifiedCount,
	})
}
