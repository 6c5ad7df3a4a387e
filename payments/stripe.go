// payments/stripe.go
package payments

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
)

// StripeProvider implements Provider on Stripe hosted checkout.
type StripeProvider struct {
	siteDomain string
}

// NewStripeProvider sets the global Stripe key and remembers the
// frontend base URL used for redirect targets.
func NewStripeProvider(secretKey, siteDomain string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{siteDomain: siteDomain}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.UserEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(math.Round(req.Price * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(fmt.Sprintf("Sold by: %s. Thank you for shopping with Unity Shop!", req.SellerName)),
					},
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL:        stripe.String(p.siteDomain + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(p.siteDomain + "/payment-cancel"),
		ClientReferenceID: stripe.String(uuid.NewString()),
	}
	params.Context = ctx

	params.AddMetadata("productId", req.ProductID)
	params.AddMetadata("productName", req.ProductName)
	params.AddMetadata("sellerName", req.SellerName)
	params.AddMetadata("sellerEmail", req.SellerEmail)
	params.AddMetadata("unitPrice", strconv.FormatFloat(req.Price, 'f', -1, 64))
	params.AddMetadata("paidAmount", strconv.FormatFloat(req.Price*float64(req.Quantity), 'f', -1, 64))
	params.AddMetadata("paidAt", time.Now().UTC().Format(time.RFC3339))
	if req.PromoCode != "" {
		params.AddMetadata("promoCode", req.PromoCode)
	}

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	out := &Session{
		ID:            s.ID,
		AmountTotal:   s.AmountTotal,
		CustomerEmail: s.CustomerEmail,
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		out.CustomerName = s.CustomerDetails.Name
		if out.CustomerEmail == "" {
			out.CustomerEmail = s.CustomerDetails.Email
		}
	}
	return out, nil
}
