// routes/routes.go
package routes

import (
	"github.com/gorilla/mux"

	"unityshop-backend/controllers"
	"unityshop-backend/middleware"
	"unityshop-backend/models"
	"unityshop-backend/realtime"
)

// Controllers bundles everything RegisterRoutes wires up.
type Controllers struct {
	Cart          *controllers.CartController
	Payment       *controllers.PaymentController
	Notifications *controllers.NotificationController
	Promo         *controllers.PromoController
	Orders        *controllers.OrderController
	Reviews       *controllers.ReviewController
	Products      *controllers.ProductController
	Users         *controllers.UserController
	Hub           *realtime.Hub
}

// RegisterRoutes sets up all the routes for the application.
func RegisterRoutes(router *mux.Router, c Controllers) {
	// Auth
	router.HandleFunc("/auth/register", c.Users.Register).Methods("POST")
	router.HandleFunc("/auth/login", c.Users.Login).Methods("POST")
	profile := router.PathPrefix("/auth/profile").Subrouter()
	profile.Use(middleware.AuthMiddleware)
	profile.HandleFunc("", c.Users.GetProfile).Methods("GET")

	// Cart
	router.HandleFunc("/cart/add", c.Cart.AddToCart).Methods("POST")
	router.HandleFunc("/cart/update", c.Cart.UpdateQuantity).Methods("PUT")
	router.HandleFunc("/cart/remove", c.Cart.RemoveFromCart).Methods("DELETE")
	router.HandleFunc("/cart/{userId}", c.Cart.GetCart).Methods("GET")

	// Payment
	router.HandleFunc("/payment/create-checkout-session", c.Payment.CreateCheckoutSession).Methods("POST")
	router.HandleFunc("/payment/retrivedsessionAfterPayment", c.Payment.RetrieveSessionAfterPayment).Methods("PATCH")

	// Notifications
	router.HandleFunc("/notifications", c.Notifications.Create).Methods("POST")
	router.HandleFunc("/notifications", c.Notifications.List).Methods("GET")
	router.HandleFunc("/notifications/unread-count", c.Notifications.UnreadCount).Methods("GET")
	router.HandleFunc("/notifications/mark-all-read", c.Notifications.MarkAllRead).Methods("PATCH")
	router.HandleFunc("/notifications/{id}/read", c.Notifications.MarkRead).Methods("PATCH")
	router.HandleFunc("/notifications/{id}", c.Notifications.Delete).Methods("DELETE")

	// Promo
	router.HandleFunc("/promo/validate", c.Promo.Validate).Methods("POST")
	promoAdmin := router.PathPrefix("/promo/admin").Subrouter()
	promoAdmin.Use(middleware.AuthMiddleware)
	promoAdmin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
	promoAdmin.HandleFunc("", c.Promo.ListAdmin).Methods("GET")
	promoAdmin.HandleFunc("", c.Promo.CreateAdmin).Methods("POST")
	promoAdmin.HandleFunc("/{id}", c.Promo.UpdateAdmin).Methods("PATCH")
	promoAdmin.HandleFunc("/{id}", c.Promo.DeleteAdmin).Methods("DELETE")

	// Orders
	router.HandleFunc("/orders", c.Orders.List).Methods("GET")
	router.HandleFunc("/orders/seller-stats", c.Orders.SellerStats).Methods("GET")
	router.HandleFunc("/orders/user-stats", c.Orders.UserStats).Methods("GET")
	router.HandleFunc("/orders/platform-stats", c.Orders.PlatformStats).Methods("GET")
	orderStatus := router.PathPrefix("/orders/{id}").Subrouter()
	orderStatus.Use(middleware.AuthMiddleware)
	orderStatus.Use(middleware.RequireRole(models.RoleSeller, models.RoleManager, models.RoleAdmin))
	orderStatus.HandleFunc("", c.Orders.UpdateStatus).Methods("PATCH")

	// Reviews
	router.HandleFunc("/reviews", c.Reviews.Create).Methods("POST")
	router.HandleFunc("/reviews/{productId}", c.Reviews.List).Methods("GET")
	router.HandleFunc("/reviews/{id}", c.Reviews.Update).Methods("PUT")
	router.HandleFunc("/reviews/{id}", c.Reviews.Delete).Methods("DELETE")

	// Products
	router.HandleFunc("/product/categories", c.Products.Categories).Methods("GET")
	router.HandleFunc("/product", c.Products.List).Methods("GET")
	router.HandleFunc("/product/{id}", c.Products.GetByID).Methods("GET")

	// Realtime
	router.HandleFunc("/ws", c.Hub.ServeWS).Methods("GET")
}
