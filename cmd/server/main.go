package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/blobstore"
	"github.com/Math3wsl3vi/beehives-website/internal/cache"
	"github.com/Math3wsl3vi/beehives-website/internal/cart"
	"github.com/Math3wsl3vi/beehives-website/internal/config"
	"github.com/Math3wsl3vi/beehives-website/internal/handlers"
	"github.com/Math3wsl3vi/beehives-website/internal/mpesa"
	"github.com/Math3wsl3vi/beehives-website/internal/order"
	"github.com/Math3wsl3vi/beehives-website/internal/payment"
	"github.com/Math3wsl3vi/beehives-website/internal/receipt"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

func main() {
	// Configure slog to output DEBUG level messages
	// This should be done as early as possible in main
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// Using TextHandler for console readability; for production JSONHandler might be preferred.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run Migrations
	if err := db.Migrate("migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Optional Redis mirror for checkout attempts
	var attempts *cache.AttemptCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		attempts = cache.NewAttemptCache(client)
		slog.Info("Redis attempt cache enabled", "addr", cfg.RedisAddr)
	}

	// 4. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure // Configurable for production
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 5. Object storage, gateway, services
	files, err := blobstore.NewFileStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		slog.Error("Failed to initialize file store", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	gateway := mpesa.NewClient(cfg.MpesaBaseURL, cfg.MpesaTimeout)
	flow := payment.NewManager(gateway, cfg.PollInterval, cfg.PollAttempts)
	receipts := receipt.NewGenerator(files)
	orders := order.NewService(db, receipts, attempts)
	carts := cart.NewSessionPersister(sessionStore)

	// Base context for payment pollers; cancelled on shutdown so in-flight
	// polls stop with the server.
	baseCtx, cancelPolls := context.WithCancel(context.Background())
	defer cancelPolls()

	// 6. Setup Handlers
	shopHandler := &handlers.ShopHandler{Store: db}
	reviewHandler := &handlers.ReviewHandler{Store: db}
	cartHandler := &handlers.CartHandler{Store: db, Carts: carts}
	contactHandler := &handlers.ContactHandler{Store: db}
	checkoutHandler := &handlers.CheckoutHandler{
		Store:        db,
		Carts:        carts,
		Gateway:      gateway,
		Flow:         flow,
		Orders:       orders,
		Attempts:     attempts,
		Receipts:     receipts,
		BaseCtx:      baseCtx,
		ConfirmDelay: cfg.ConfirmDelay,
		AttemptTTL:   time.Duration(cfg.PollAttempts+2) * cfg.PollInterval,
	}
	adminHandler := &handlers.AdminHandler{
		Store:        db,
		SessionStore: sessionStore,
	}
	productAdmin := &handlers.ProductAdminHandler{Store: db, Images: files}

	mux := http.NewServeMux()

	// Uploaded files (product images, receipts)
	fileServer := http.FileServer(http.Dir(cfg.UploadDir))
	mux.Handle(cfg.UploadBaseURL+"/", http.StripPrefix(cfg.UploadBaseURL, fileServer))

	// Rate Limiter (1 request per minute)
	rateLimiter := handlers.NewRateLimiter(1 * time.Minute)

	// Public Routes
	mux.HandleFunc("GET /api/products", shopHandler.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", shopHandler.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/reviews", reviewHandler.ListByProduct)
	mux.HandleFunc("POST /api/products/{id}/reviews", reviewHandler.Create)

	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", cartHandler.UpdateQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", cartHandler.RemoveItem)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)

	mux.HandleFunc("POST /api/checkout", rateLimiter.Middleware(checkoutHandler.Initiate))
	mux.HandleFunc("GET /api/checkout/status", checkoutHandler.Status)
	mux.HandleFunc("GET /api/orders/{ref}/receipt", checkoutHandler.DownloadReceipt)

	mux.HandleFunc("POST /api/contact", rateLimiter.Middleware(contactHandler.Submit))

	// Admin Routes (session auth + CSRF)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/csrf", adminHandler.CSRFToken)
	adminMux.HandleFunc("POST /api/admin/login", adminHandler.Login)
	adminMux.HandleFunc("POST /api/admin/logout", adminHandler.Logout)

	adminMux.HandleFunc("GET /api/admin/dashboard", adminHandler.RequireAdmin(adminHandler.Dashboard))
	adminMux.HandleFunc("GET /api/admin/orders", adminHandler.RequireAdmin(adminHandler.ListOrders))
	adminMux.HandleFunc("GET /api/admin/orders/{ref}", adminHandler.RequireAdmin(adminHandler.GetOrder))
	adminMux.HandleFunc("PUT /api/admin/orders/{ref}/status", adminHandler.RequireAdmin(adminHandler.UpdateOrderStatus))
	adminMux.HandleFunc("GET /api/admin/contacts", adminHandler.RequireAdmin(adminHandler.ListContacts))
	adminMux.HandleFunc("GET /api/admin/reviews", adminHandler.RequireAdmin(adminHandler.ListReviews))
	adminMux.HandleFunc("PUT /api/admin/reviews/{id}/response", adminHandler.RequireAdmin(adminHandler.RespondToReview))

	adminMux.HandleFunc("POST /api/admin/products", adminHandler.RequireAdmin(productAdmin.Create))
	adminMux.HandleFunc("PUT /api/admin/products/{id}", adminHandler.RequireAdmin(productAdmin.Update))
	adminMux.HandleFunc("DELETE /api/admin/products/{id}", adminHandler.RequireAdmin(productAdmin.Delete))
	adminMux.HandleFunc("POST /api/admin/products/{id}/image", adminHandler.RequireAdmin(productAdmin.UploadImage))

	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure), // Configurable for production
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)
	mux.Handle("/api/admin/", CSRF(adminMux))

	// Wrap the router with middleware chain
	// Chain: Logger -> Security Headers -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(mux),
	)

	// Periodic cleanup of stale checkout attempts
	pruneStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := db.PruneAttempts(24 * time.Hour); err != nil {
					slog.Error("Failed to prune checkout attempts", "error", err)
				} else if n > 0 {
					slog.Info("Pruned stale checkout attempts", "count", n)
				}
			case <-pruneStop:
				return
			}
		}
	}()

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	// Create a channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Goroutine to start the server
	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-stop

	slog.Info("Shutting down server gracefully...")
	close(pruneStop)
	cancelPolls()

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
