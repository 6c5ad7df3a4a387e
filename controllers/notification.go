// controllers/notification.go
package controllers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

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

// NotificationController persists notifications and fans them out to
// connected clients. The push is a convenience channel: a failed or
// missed emit never fails the originating request.
type NotificationController struct {
	Collection *mongo.Collection
	Hub        *realtime.Hub
	Log        *zap.Logger
	validate   *validator.Validate
}

// NewNotificationController creates a new NotificationController.
func NewNotificationController(client *mongo.Client, hub *realtime.Hub, log *zap.Logger) *NotificationController {
	return &NotificationController{
		Collection: utils.Collection(client, "notifications"),
		Hub:        hub,
		Log:        log,
		validate:   validator.New(),
	}
}

// emailFilter matches the recipient case-insensitively.
func emailFilter(email string) bson.M {
	return bson.M{"email": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(email) + "$",
		Options: "i",
	}}
}

// unreadFilter scopes a bulk operation to the recipient's unread rows.
// MarkAllRead matches nothing on a repeated call, so it is idempotent.
func unreadFilter(email string) bson.M {
	filter := emailFilter(email)
	filter["read"] = false
	return filter
}

// notificationListOptions is the listing window: 50 most recent first.
func notificationListOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(50)
}

// Notify persists a notification and pushes it to the recipient's
// channel. The persist error is returned; the push is fire-and-forget.
func (nc *NotificationController) Notify(ctx context.Context, n *models.Notification) error {
	result, err := nc.Collection.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = id
	}
	if nc.Hub != nil {
		nc.Hub.Emit(strings.ToLower(n.Email), "notification", n)
	}
	return nil
}

// BroadcastCoupon pushes a coupon announcement to every connected
// client. It is not persisted per-recipient and not room-filtered.
func (nc *NotificationController) BroadcastCoupon(code string, discount float64) {
	if nc.Hub == nil {
		return
	}
	nc.Hub.Broadcast("notification", models.NewNotification(
		"",
		models.NotifCoupon,
		"New coupon available!",
		"Use code "+code+" at checkout.",
		map[string]interface{}{"code": code, "discount": discount},
	))
}

// Create handles POST /notifications.
func (nc *NotificationController) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string                 `json:"email" validate:"required,email"`
		Type    string                 `json:"type" validate:"required"`
		Title   string                 `json:"title" validate:"required"`
		Message string                 `json:"message"`
		Meta    map[string]interface{} `json:"meta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := nc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "email, type, title are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	n := models.NewNotification(req.Email, req.Type, req.Title, req.Message, req.Meta)
	if err := nc.Notify(ctx, n); err != nil {
		nc.Log.Error("notification insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	respondJSON(w, http.StatusCreated, n)
}

// List handles GET /notifications?email= and returns the 50 most
// recent notifications for the recipient.
func (nc *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cursor, err := nc.Collection.Find(ctx, emailFilter(email), notificationListOptions())
	if err != nil {
		nc.Log.Error("notification list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		nc.Log.Error("notification decode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /notifications/unread-count?email=.
func (nc *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	count, err := nc.Collection.CountDocuments(ctx, unreadFilter(email))
	if err != nil {
		nc.Log.Error("unread count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get unread count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// MarkAllRead handles PATCH /notifications/mark-all-read. It only
// touches unread rows, so repeated calls are idempotent.
func (nc *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := nc.Collection.UpdateMany(ctx, unreadFilter(req.Email), bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		nc.Log.Error("mark all read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to mark all as read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"modifiedCount": result.ModifiedCount,
	})
}

// MarkRead handles PATCH /notifications/{id}/read.
func (nc *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := nc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		nc.Log.Error("mark read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to mark as read")
		return
	}
	if result.MatchedCount == 0 {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete handles DELETE /notifications/{id}.
func (nc *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := nc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		nc.Log.Error("notification delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}
	if result.DeletedCount == 0 {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
