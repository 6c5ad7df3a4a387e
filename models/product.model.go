package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is read-only from the cart/checkout pipeline's point of
// view; stock reconciliation happens elsewhere. Rating and Reviews are
// maintained by the review recalculation.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Image       string             `bson:"image" json:"image"`
	Category    string             `bson:"category" json:"category"`
	SellerID    string             `bson:"sellerId" json:"sellerId"`
	SellerEmail string             `bson:"sellerEmail" json:"sellerEmail"`
	SellerName  string             `bson:"sellerName" json:"sellerName"`
	Rating      float64            `bson:"rating" json:"rating"`
	Reviews     int                `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// CategoryCount is one row of the category aggregation.
type CategoryCount struct {
	Name  string `bson:"_id" json:"name"`
	Count int    `bson:"count" json:"count"`
}
