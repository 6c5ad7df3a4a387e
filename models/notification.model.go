package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifCartAdd         = "cart_add"
	NotifOrderConfirmed  = "order_confirmed"
	NotifPaymentSuccess  = "payment_success"
	NotifCoupon          = "coupon"
	NotifProductApproved = "product_approved"
	NotifProductRejected = "product_rejected"
)

// Notification is addressed to a recipient by email. The lowercased
// email doubles as the realtime channel name; matching against the
// stored email is case-insensitive.
type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"_id,omitempty"`
	Email     string                 `bson:"email" json:"email"`
	Type      string                 `bson:"type" json:"type"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Meta      map[string]interface{} `bson:"meta" json:"meta"`
	Read      bool                   `bson:"read" json:"read"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}

// NewNotification builds an unread notification with defaults applied.
func NewNotification(email, notifType, title, message string, meta map[string]interface{}) *Notification {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return &Notification{
		Email:     email,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Meta:      meta,
		Read:      false,
		CreatedAt: time.Now(),
	}
}
