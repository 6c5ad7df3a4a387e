package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one row in a cart. A cart never holds two rows for the
// same product and never stores a quantity below 1.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart is the single cart document owned by a user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemQuantity returns the stored quantity for a product and whether
// the cart holds a row for it.
func (c *Cart) ItemQuantity(productID primitive.ObjectID) (int, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity, true
		}
	}
	return 0, false
}

// CartLine is a cart item joined with live product data. It is what
// the cart endpoint returns; it is never persisted.
type CartLine struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Image       string             `bson:"image" json:"image"`
	Category    string             `bson:"category" json:"category"`
	SellerID    string             `bson:"sellerId" json:"sellerId"`
	SellerEmail string             `bson:"sellerEmail" json:"sellerEmail"`
	SellerName  string             `bson:"sellerName" json:"sellerName"`
}
