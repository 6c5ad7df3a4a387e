// payments/provider.go
package payments

import "context"

// CheckoutRequest carries everything a hosted checkout session needs.
// Product and seller identity travel as session metadata: the success
// callback only receives a session reference, so the metadata
// round-trip is the only way it recovers order context.
type CheckoutRequest struct {
	Price       float64
	Quantity    int64
	ProductID   string
	ProductName string
	UserEmail   string
	SellerName  string
	SellerEmail string
	PromoCode   string
}

// Session is the provider-neutral view of a finished (or abandoned)
// checkout session. PaymentIntentID is the processor's payment-intent
// identifier and serves as the order idempotency key.
type Session struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	CustomerEmail   string
	CustomerName    string
	PaymentStatus   string
	Status          string
	Metadata        map[string]string
}

// Provider is the external payment processor boundary.
type Provider interface {
	// CreateSession opens a hosted checkout session and returns the
	// redirect URL the client should be sent to.
	CreateSession(ctx context.Context, req CheckoutRequest) (string, error)
	// RetrieveSession fetches a session by id after the processor
	// redirected the customer back.
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
