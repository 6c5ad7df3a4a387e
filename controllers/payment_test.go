package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unityshop-backend/models"
	"unityshop-backend/payments"
)

type fakeProvider struct {
	session   *payments.Session
	createURL string
	createErr error
	getErr    error
}

func (f *fakeProvider) CreateSession(_ context.Context, _ payments.CheckoutRequest) (string, error) {
	return f.createURL, f.createErr
}

func (f *fakeProvider) RetrieveSession(_ context.Context, _ string) (*payments.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

type fakeOrderStore struct {
	orders      map[string]*models.Order
	insertCalls int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*models.Order{}}
}

func (f *fakeOrderStore) ExistsByTransitionID(_ context.Context, transitionID string) (bool, error) {
	_, ok := f.orders[transitionID]
	return ok, nil
}

func (f *fakeOrderStore) Insert(_ context.Context, order *models.Order) error {
	f.insertCalls++
	f.orders[order.TransitionID] = order
	return nil
}

type fakeNotifier struct {
	sent []*models.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *models.Notification) error {
	f.sent = append(f.sent, n)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(_ context.Context, _ *models.Notification) error {
	return errors.New("fan-out unavailable")
}

type fakePromos struct {
	incremented []string
}

func (f *fakePromos) IncrementUsage(_ context.Context, code string) error {
	f.incremented = append(f.incremented, code)
	return nil
}

func completedSession() *payments.Session {
	return &payments.Session{
		ID:              "cs_test_123",
		PaymentIntentID: "pi_abc123",
		AmountTotal:     9998, // $99.98 = 2 x $49.99
		CustomerEmail:   "buyer@example.com",
		CustomerName:    "Buyer One",
		PaymentStatus:   "paid",
		Status:          "complete",
		Metadata: map[string]string{
			"productId":   "507f191e810c19729de860ea",
			"productName": "Mechanical Keyboard",
			"sellerName":  "KeyCo",
			"sellerEmail": "seller@example.com",
			"unitPrice":   "49.99",
			"paidAmount":  "99.98",
		},
	}
}

func newTestPaymentController(provider payments.Provider, store OrderStore, notifier Notifier, promos PromoRedeemer) *PaymentController {
	return &PaymentController{
		Provider: provider,
		Orders:   store,
		Notifier: notifier,
		Promos:   promos,
		Log:      zap.NewNop(),
		validate: validator.New(),
	}
}

func finalize(t *testing.T, pc *PaymentController, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPatch, "/payment/retrivedsessionAfterPayment?session_id="+sessionID, nil)
	w := httptest.NewRecorder()
	pc.RetrieveSessionAfterPayment(w, r)
	return w
}

func TestFinalizeSessionCreatesOrder(t *testing.T) {
	store := newFakeOrderStore()
	notifier := &fakeNotifier{}
	pc := newTestPaymentController(&fakeProvider{session: completedSession()}, store, notifier, &fakePromos{})

	w := finalize(t, pc, "cs_test_123")
	require.Equal(t, http.StatusOK, w.Code)

	order, ok := store.orders["pi_abc123"]
	require.True(t, ok)
	assert.Equal(t, "pi_abc123", order.TransitionID)
	assert.Equal(t, 99.98, order.AmountPaid)
	assert.Equal(t, 2, order.Quantity)
	assert.Equal(t, "Mechanical Keyboard", order.ProductName)
	assert.Equal(t, "buyer@example.com", order.CustomerEmail)
	assert.Equal(t, "seller@example.com", order.SellerEmail)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, "paid", order.PaymentStatus)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "complete", body["status"])
	assert.Equal(t, "paid", body["payment_status"])
	assert.Equal(t, "buyer@example.com", body["customer_email"])
}

func TestFinalizeSessionIsIdempotent(t *testing.T) {
	store := newFakeOrderStore()
	notifier := &fakeNotifier{}
	pc := newTestPaymentController(&fakeProvider{session: completedSession()}, store, notifier, &fakePromos{})

	first := finalize(t, pc, "cs_test_123")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, store.insertCalls)
	notificationsAfterFirst := len(notifier.sent)

	second := finalize(t, pc, "cs_test_123")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "Order already processed.")

	// Exactly one order, zero additional writes or notifications.
	assert.Equal(t, 1, store.insertCalls)
	assert.Len(t, store.orders, 1)
	assert.Len(t, notifier.sent, notificationsAfterFirst)
}

func TestFinalizeSessionNotifiesBuyerAndSeller(t *testing.T) {
	notifier := &fakeNotifier{}
	pc := newTestPaymentController(&fakeProvider{session: completedSession()}, newFakeOrderStore(), notifier, &fakePromos{})

	finalize(t, pc, "cs_test_123")

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "buyer@example.com", notifier.sent[0].Email)
	assert.Equal(t, models.NotifPaymentSuccess, notifier.sent[0].Type)
	assert.Equal(t, "seller@example.com", notifier.sent[1].Email)
	assert.Equal(t, models.NotifOrderConfirmed, notifier.sent[1].Type)
}

func TestFinalizeSessionNotificationFailureDoesNotFailOrder(t *testing.T) {
	store := newFakeOrderStore()
	pc := newTestPaymentController(&fakeProvider{session: completedSession()}, store, failingNotifier{}, &fakePromos{})

	w := finalize(t, pc, "cs_test_123")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.orders, 1)
}

func TestFinalizeSessionIncrementsPromoUsage(t *testing.T) {
	session := completedSession()
	session.Metadata["promoCode"] = "SAVE10"
	promos := &fakePromos{}
	pc := newTestPaymentController(&fakeProvider{session: session}, newFakeOrderStore(), &fakeNotifier{}, promos)

	finalize(t, pc, "cs_test_123")

	assert.Equal(t, []string{"SAVE10"}, promos.incremented)
}

func TestFinalizeSessionRequiresSessionID(t *testing.T) {
	pc := newTestPaymentController(&fakeProvider{session: completedSession()}, newFakeOrderStore(), &fakeNotifier{}, &fakePromos{})

	w := finalize(t, pc, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinalizeSessionUpstreamFailure(t *testing.T) {
	pc := newTestPaymentController(&fakeProvider{getErr: errors.New("processor down")}, newFakeOrderStore(), &fakeNotifier{}, &fakePromos{})

	w := finalize(t, pc, "cs_test_123")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "processor down")
}

func TestDeriveQuantity(t *testing.T) {
	tests := []struct {
		name       string
		metadata   map[string]string
		amountPaid float64
		want       int
	}{
		{"exact multiple", map[string]string{"unitPrice": "49.99"}, 99.98, 2},
		{"single unit", map[string]string{"unitPrice": "25"}, 25, 1},
		{"missing unit price", map[string]string{}, 99.98, 1},
		{"zero unit price", map[string]string{"unitPrice": "0"}, 99.98, 1},
		{"undivisible defaults to one", map[string]string{"unitPrice": "30"}, 99.98, 1},
		{"zero amount paid", map[string]string{"unitPrice": "10"}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveQuantity(tt.metadata, tt.amountPaid))
		})
	}
}

func TestCreateCheckoutSessionReturnsURL(t *testing.T) {
	pc := newTestPaymentController(&fakeProvider{createURL: "https://checkout.example.com/cs_test_123"}, newFakeOrderStore(), &fakeNotifier{}, &fakePromos{})

	body := `{"price":49.99,"productId":"507f191e810c19729de860ea","quantity":2,"productName":"Mechanical Keyboard","userEmail":"buyer@example.com","sellerName":"KeyCo","sellerEmail":"seller@example.com"}`
	r := httptest.NewRequest(http.MethodPost, "/payment/create-checkout-session", strings.NewReader(body))
	w := httptest.NewRecorder()

	pc.CreateCheckoutSession(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://checkout.example.com/cs_test_123", resp["url"])
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	pc := newTestPaymentController(&fakeProvider{}, newFakeOrderStore(), &fakeNotifier{}, &fakePromos{})

	tests := []struct {
		name string
		body string
	}{
		{"missing price", `{"productId":"p","quantity":1,"productName":"x","userEmail":"a@b.com"}`},
		{"bad email", `{"price":10,"productId":"p","quantity":1,"productName":"x","userEmail":"nope"}`},
		{"zero quantity", `{"price":10,"productId":"p","quantity":0,"productName":"x","userEmail":"a@b.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/payment/create-checkout-session", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			pc.CreateCheckoutSession(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
