// controllers/payment.go
package controllers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/payments"
	"unityshop-backend/utils"
)

// OrderStore is the paidOrders boundary. The Mongo implementation is
// backed by a unique index on transitionId, which closes the narrow
// race between the existence check and the insert.
type OrderStore interface {
	ExistsByTransitionID(ctx context.Context, transitionID string) (bool, error)
	Insert(ctx context.Context, order *models.Order) error
}

// Notifier delivers a notification to its recipient. In production it
// is the NotificationController.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// PromoRedeemer consumes one use of a promo code after payment.
type PromoRedeemer interface {
	IncrementUsage(ctx context.Context, code string) error
}

// Mailer sends the buyer's confirmation mail.
type Mailer interface {
	SendOrderConfirmation(toEmail string, order models.Order) error
}

type mongoOrderStore struct {
	col *mongo.Collection
}

// NewOrderStore returns the Mongo-backed order store.
func NewOrderStore(client *mongo.Client) OrderStore {
	return &mongoOrderStore{col: utils.Collection(client, "paidOrders")}
}

func (s *mongoOrderStore) ExistsByTransitionID(ctx context.Context, transitionID string) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"transitionId": transitionID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *mongoOrderStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := s.col.InsertOne(ctx, order)
	return err
}

// PaymentController bridges carts to the external payment processor
// and turns completed sessions into durable, idempotent orders.
type PaymentController struct {
	Provider payments.Provider
	Orders   OrderStore
	Notifier Notifier
	Promos   PromoRedeemer
	Mailer   Mailer
	Log      *zap.Logger
	validate *validator.Validate
}

// NewPaymentController creates a new PaymentController. Mailer may be
// nil when no mail credentials are configured.
func NewPaymentController(provider payments.Provider, orders OrderStore, notifier Notifier, promos PromoRedeemer, mailer Mailer, log *zap.Logger) *PaymentController {
	return &PaymentController{
		Provider: provider,
		Orders:   orders,
		Notifier: notifier,
		Promos:   promos,
		Mailer:   mailer,
		Log:      log,
		validate: validator.New(),
	}
}

type checkoutRequest struct {
	Price       float64 `json:"price" validate:"required,gt=0"`
	ProductID   string  `json:"productId" validate:"required"`
	Quantity    int64   `json:"quantity" validate:"required,min=1"`
	ProductName string  `json:"productName" validate:"required"`
	UserEmail   string  `json:"userEmail" validate:"required,email"`
	SellerName  string  `json:"sellerName"`
	SellerEmail string  `json:"sellerEmail" validate:"omitempty,email"`
	PromoCode   string  `json:"promoCode"`
}

// CreateCheckoutSession handles POST /payment/create-checkout-session
// and answers with the processor's redirect URL.
func (pc *PaymentController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := pc.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "price, productId, quantity, productName and userEmail are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	url, err := pc.Provider.CreateSession(ctx, payments.CheckoutRequest{
		Price:       req.Price,
		Quantity:    req.Quantity,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		UserEmail:   req.UserEmail,
		SellerName:  req.SellerName,
		SellerEmail: req.SellerEmail,
		PromoCode:   req.PromoCode,
	})
	if err != nil {
		pc.Log.Error("checkout session create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// deriveQuantity recovers the purchased quantity from the metadata
// unit price and the amount actually paid, defaulting to 1 whenever
// the division is unusable.
func deriveQuantity(metadata map[string]string, amountPaid float64) int {
	unitPrice, err := strconv.ParseFloat(metadata["unitPrice"], 64)
	if err != nil || unitPrice <= 0 || amountPaid <= 0 {
		return 1
	}
	q := amountPaid / unitPrice
	rounded := math.Round(q)
	if rounded < 1 || math.Abs(q-rounded) > 1e-9 {
		return 1
	}
	return int(rounded)
}

// orderFromSession maps a completed session to the canonical order
// document.
func orderFromSession(s *payments.Session) *models.Order {
	amountPaid := float64(s.AmountTotal) / 100
	return &models.Order{
		TransitionID:  s.PaymentIntentID,
		CustomerEmail: s.CustomerEmail,
		CustomerName:  s.CustomerName,
		ProductID:     s.Metadata["productId"],
		ProductName:   s.Metadata["productName"],
		SellerEmail:   s.Metadata["sellerEmail"],
		SellerName:    s.Metadata["sellerName"],
		Quantity:      deriveQuantity(s.Metadata, amountPaid),
		AmountPaid:    amountPaid,
		PaymentStatus: s.PaymentStatus,
		Status:        models.OrderStatusNew,
		CreatedAt:     time.Now(),
	}
}

// RetrieveSessionAfterPayment handles
// PATCH /payment/retrivedsessionAfterPayment?session_id=...
//
// The success page, browser refreshes and processor retries can all
// invoke this more than once for the same payment, so the payment
// intent id is checked before insert and a duplicate call returns a
// success-shaped "already processed" body with no further writes.
func (pc *PaymentController) RetrieveSessionAfterPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	session, err := pc.Provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		pc.Log.Error("session retrieve failed", zap.String("session_id", sessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve payment session")
		return
	}
	if session.PaymentIntentID == "" {
		respondError(w, http.StatusBadRequest, "session has no payment intent")
		return
	}

	exists, err := pc.Orders.ExistsByTransitionID(ctx, session.PaymentIntentID)
	if err != nil {
		pc.Log.Error("order existence check failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to finalize payment")
		return
	}
	if exists {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Order already processed."})
		return
	}

	order := orderFromSession(session)
	if err := pc.Orders.Insert(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the check-then-insert race to a concurrent
			// finalize; the unique index kept the invariant.
			respondJSON(w, http.StatusOK, map[string]string{"message": "Order already processed."})
			return
		}
		pc.Log.Error("order insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to finalize payment")
		return
	}

	pc.afterOrderPersisted(ctx, order, session)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         session.Status,
		"payment_status": session.PaymentStatus,
		"metadata":       session.Metadata,
		"customer_email": session.CustomerEmail,
	})
}

// afterOrderPersisted runs everything that must not fail the order
// write: fan-out to buyer and seller, promo usage, confirmation mail.
func (pc *PaymentController) afterOrderPersisted(ctx context.Context, order *models.Order, session *payments.Session) {
	if order.CustomerEmail != "" {
		n := models.NewNotification(
			order.CustomerEmail,
			models.NotifPaymentSuccess,
			"Order Confirmed!",
			fmt.Sprintf("Payment successful for %s. Amount: $%.2f", order.ProductName, order.AmountPaid),
			map[string]interface{}{"transitionId": order.TransitionID},
		)
		if err := pc.Notifier.Notify(ctx, n); err != nil {
			pc.Log.Warn("buyer notification failed", zap.String("email", order.CustomerEmail), zap.Error(err))
		}
	}

	if order.SellerEmail != "" {
		n := models.NewNotification(
			order.SellerEmail,
			models.NotifOrderConfirmed,
			"New Order Received!",
			fmt.Sprintf("Start packing! You sold %s to %s.", order.ProductName, order.CustomerName),
			map[string]interface{}{"transitionId": order.TransitionID},
		)
		if err := pc.Notifier.Notify(ctx, n); err != nil {
			pc.Log.Warn("seller notification failed", zap.String("email", order.SellerEmail), zap.Error(err))
		}
	}

	if code := session.Metadata["promoCode"]; code != "" && pc.Promos != nil {
		if err := pc.Promos.IncrementUsage(ctx, code); err != nil {
			pc.Log.Warn("promo usage increment failed", zap.String("code", code), zap.Error(err))
		}
	}

	if pc.Mailer != nil && order.CustomerEmail != "" {
		go func(email string, o models.Order) {
			if err := pc.Mailer.SendOrderConfirmation(email, o); err != nil {
				pc.Log.Warn("confirmation mail failed", zap.String("email", email), zap.Error(err))
			}
		}(order.CustomerEmail, *order)
	}
}
