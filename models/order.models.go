package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle states. An order starts as New and moves forward by
// seller/admin action only.
const (
	OrderStatusNew        = "New"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// ValidOrderStatus reports whether s is one of the lifecycle states.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is one completed payment, stored in the paidOrders collection.
// TransitionID is the payment processor's payment-intent id and the
// idempotency key: at most one order exists per TransitionID, enforced
// by a unique index. Everything except Status is immutable after
// insert.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TransitionID  string             `bson:"transitionId" json:"transitionId"`
	CustomerEmail string             `bson:"customerEmail" json:"customerEmail"`
	CustomerName  string             `bson:"customerName" json:"customerName"`
	ProductID     string             `bson:"productId" json:"productId"`
	ProductName   string             `bson:"productName" json:"productName"`
	SellerEmail   string             `bson:"sellerEmail" json:"sellerEmail"`
	SellerName    string             `bson:"sellerName" json:"sellerName"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	AmountPaid    float64            `bson:"amountPaid" json:"amountPaid"`
	PaymentStatus string             `bson:"paymentStatus" json:"paymentStatus"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
