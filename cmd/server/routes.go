package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/tailorone/backend/internal/config"
	"github.com/tailorone/backend/internal/handler"
	appMiddleware "github.com/tailorone/backend/internal/middleware"
	"github.com/tailorone/backend/internal/service"
)

type routerDeps struct {
	cfg           *config.Config
	redis         *redis.Client
	auth          *service.AuthService
	subscriptions *service.SubscriptionService
	orders        *service.OrderService
	offers        *service.OfferService
	carts         *service.CartService
	addresses     *service.AddressService
	catalog       *service.CatalogService
	system        *service.SystemService
	health        map[string]handler.HealthCheck
}

func newRouter(d routerDeps) http.Handler {
	healthHandler := handler.NewHealthHandler(d.health)
	authHandler := handler.NewAuthHandler(d.auth)
	userHandler := handler.NewUserHandler(d.auth, d.subscriptions)
	plansHandler := handler.NewPlansHandler(d.subscriptions)
	subHandler := handler.NewSubscriptionHandler(d.subscriptions)
	orderHandler := handler.NewOrderHandler(d.orders)
	paymentHandler := handler.NewPaymentHandler(d.orders, d.system)
	webhookHandler := handler.NewWebhookHandler(d.orders)
	cartHandler := handler.NewCartHandler(d.carts)
	addressHandler := handler.NewAddressHandler(d.addresses)
	catalogHandler := handler.NewCatalogHandler(d.catalog)
	offerHandler := handler.NewOfferHandler(d.offers)
	systemHandler := handler.NewSystemHandler(d.system)
	adminHandler := handler.NewAdminHandler(d.system)

	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Razorpay-Signature"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Get("/api/getkey", paymentHandler.GetKey)
	r.Get("/api/subscriptions", plansHandler.List)
	r.Get("/api/services", catalogHandler.List)
	r.Get("/api/offers", offerHandler.List)
	r.Get("/api/offers/code/{code}", offerHandler.GetByCode)
	r.Post("/api/offers/apply", offerHandler.Apply)
	r.Get("/api/config", systemHandler.GetConfig)
	r.Post("/api/payment/webhook", webhookHandler.HandleRazorpay)

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/verify-otp", authHandler.VerifyOTP)
		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/auth/reset-password", authHandler.ResetPassword)
		r.With(forgotPasswordLimiter(d.redis)).Post("/api/auth/forget-password", authHandler.ForgotPassword)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(d.auth))

		r.Get("/api/auth/me", authHandler.Me)

		r.Post("/api/subscriptions/buy", subHandler.Buy)
		r.Get("/api/subscriptions/user/{userId}", subHandler.ListByUser)
		r.Put("/api/subscriptions/usage/{id}", subHandler.RecordUsage)
		r.Get("/api/subscriptions/instances/{id}", subHandler.Get)

		r.Post("/api/orders/create", orderHandler.Create)
		r.Put("/api/orders/update-payment", orderHandler.UpdatePayment)
		r.Get("/api/orders/my-orders", orderHandler.MyOrders)
		r.Get("/api/orders/{orderId}", orderHandler.Get)
		r.Post("/api/payment/verify", paymentHandler.Verify)

		r.Route("/api/cart", func(r chi.Router) {
			r.Post("/save", cartHandler.Save)
			r.Post("/markPaid", cartHandler.MarkPaid)
			r.Post("/clear", cartHandler.Clear)
			r.Get("/count/{userId}", cartHandler.Count)
			r.Get("/{userId}", cartHandler.Get)
		})

		r.Route("/api/address", func(r chi.Router) {
			r.Post("/", addressHandler.Add)
			r.Get("/", addressHandler.List)
			r.Delete("/{id}", addressHandler.Delete)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)

			r.Post("/api/subscriptions", plansHandler.Create)
			r.Put("/api/subscriptions/{id}", plansHandler.Update)
			r.Delete("/api/subscriptions/{id}", plansHandler.Delete)
			r.Get("/api/subscriptions/instances", subHandler.ListAll)
			r.Put("/api/subscriptions/instances/{id}/status", subHandler.ChangeStatus)
			r.Get("/api/subscriptions/stats", subHandler.Stats)

			r.Get("/api/orders/all", orderHandler.All)
			r.Put("/api/orders/update-status/{orderId}", orderHandler.UpdateStatus)

			r.Post("/api/offers", offerHandler.Create)
			r.Put("/api/offers/{id}", offerHandler.Update)
			r.Delete("/api/offers/{id}", offerHandler.Delete)

			r.Post("/api/services/add", catalogHandler.Add)
			r.Put("/api/services/update/{id}", catalogHandler.Update)
			r.Delete("/api/services/delete/{id}", catalogHandler.Delete)

			r.Post("/api/config", systemHandler.UpdateConfig)

			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Get("/api/users", userHandler.List)
			r.Get("/api/users/{id}", userHandler.Get)
			r.Post("/api/users", userHandler.Create)
			r.Delete("/api/users/{id}", userHandler.Delete)
		})
	})

	return r
}

// forgotPasswordLimiter allows 5 OTP requests per 15 minutes per IP, shared
// across replicas when Redis is configured.
func forgotPasswordLimiter(rdb *redis.Client) func(http.Handler) http.Handler {
	const (
		limit  = 5
		window = 15 * time.Minute
	)
	if rdb != nil {
		return appMiddleware.NewRedisRateLimiter(rdb, "forget-password", limit, window).Middleware()
	}
	return appMiddleware.NewWindowRateLimiter(limit, window).Middleware()
}
