package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/database"
	"github.com/Cardboom/cardboomtest-sub000/internal/fees"
	"github.com/Cardboom/cardboomtest-sub000/internal/ownership"
	"github.com/Cardboom/cardboomtest-sub000/internal/purchase"
	"github.com/Cardboom/cardboomtest-sub000/internal/resale"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/verification"
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
	"github.com/Cardboom/cardboomtest-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading engine API server with graceful
// shutdown support. It sets up all required services, database connections,
// background workers and API routes
func main() {
	// Initialize database
	db, err := database.NewDatabase(os.Getenv("DB_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(middleware.JWTSecret())
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	feeSchedule := feeScheduleFromEnv()

	walletService := wallet.NewService(db)
	walletHandlers := wallet.NewGinHandlers(walletService)

	sharesService := shares.NewService(db)
	sharesHandlers := shares.NewGinHandlers(sharesService)

	ownershipService := ownership.NewService(db)
	ownershipHandlers := ownership.NewGinHandlers(ownershipService)

	purchaseService := purchase.NewService(db, walletService, sharesService, ownershipService, feeSchedule, purchase.Config{
		MinSharesEveryPurchase: os.Getenv("MIN_SHARES_EVERY_PURCHASE") == "true",
	})
	purchaseHandlers := purchase.NewGinHandlers(purchaseService)

	resaleService := resale.NewService(db, walletService, ownershipService, sharesService, feeSchedule)
	resaleHandlers := resale.NewGinHandlers(resaleService)

	// Portfolio summaries report resale lock-ups without a package cycle
	ownershipService.SetListedSharesFunc(resaleService.ActiveListedShares)

	verificationService := verification.NewService(db)
	verificationHandlers := verification.NewGinHandlers(verificationService)

	// Create and start background workers
	verificationProcessor := verification.NewProcessor(sharesService.GetDB())
	walletReconciler := wallet.NewReconciler(walletService.GetDB())
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go verificationProcessor.Start(workerCtx)
	go walletReconciler.Start(workerCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authHandlers, walletHandlers, sharesHandlers, purchaseHandlers, resaleHandlers, ownershipHandlers, verificationHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// feeScheduleFromEnv builds the platform fee schedule, overridable via the
// PLATFORM_FEE_RATE environment variable (e.g. "0.025")
func feeScheduleFromEnv() fees.Schedule {
	if raw := os.Getenv("PLATFORM_FEE_RATE"); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil && rate >= 0 && rate < 1 {
			return fees.NewSchedule(rate)
		}
		zlog.Warn().Str("platform_fee_rate", raw).Msg("Invalid fee rate, using default")
	}
	return fees.DefaultSchedule()
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Wallet, listing, resale and portfolio routes: Protected by JWT authentication
// Parameters:
//   - router: The main Gin router instance
//   - authHandlers: Handlers for authentication endpoints
//   - walletHandlers: Handlers for wallet top-ups and balances
//   - sharesHandlers: Handlers for share listings
//   - purchaseHandlers: Handlers for primary-market purchases
//   - resaleHandlers: Handlers for the secondary market
//   - ownershipHandlers: Handlers for portfolio summaries
//   - verificationHandlers: Handlers for proof-of-possession checks
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	walletHandlers *wallet.GinHandlers,
	sharesHandlers *shares.GinHandlers,
	purchaseHandlers *purchase.GinHandlers,
	resaleHandlers *resale.GinHandlers,
	ownershipHandlers *ownership.GinHandlers,
	verificationHandlers *verification.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Wallet routes
		walletGroup := v1.Group("/wallet")
		walletGroup.Use(middleware.JWTAuth())
		{
			walletGroup.POST("/topup", walletHandlers.TopUpHandler())
			walletGroup.GET("/balance", walletHandlers.GetBalanceHandler())
			walletGroup.GET("/ledger", walletHandlers.GetLedgerHandler())
		}

		// Listing routes
		listings := v1.Group("/listings")
		listings.Use(middleware.JWTAuth())
		{
			listings.POST("", sharesHandlers.CreateListingHandler())
			listings.GET("", sharesHandlers.ListListingsHandler())
			listings.GET("/:listing_id", sharesHandlers.GetListingHandler())
			listings.POST("/:listing_id/buy", purchaseHandlers.BuySharesHandler())
			listings.POST("/:listing_id/verify", verificationHandlers.SubmitVerificationHandler())
			listings.GET("/:listing_id/verification", verificationHandlers.GetStatusHandler())
		}

		// Secondary market routes
		resaleGroup := v1.Group("/resale")
		resaleGroup.Use(middleware.JWTAuth())
		{
			resaleGroup.POST("", resaleHandlers.CreateResaleHandler())
			resaleGroup.GET("", resaleHandlers.ListResaleHandler())
			resaleGroup.POST("/:resale_id/buy", resaleHandlers.BuyResaleHandler())
			resaleGroup.POST("/:resale_id/cancel", resaleHandlers.CancelResaleHandler())
		}

		// Portfolio routes
		portfolio := v1.Group("/portfolio")
		portfolio.Use(middleware.JWTAuth())
		{
			portfolio.GET("", ownershipHandlers.GetPortfolioHandler())
			portfolio.GET("/purchases", purchaseHandlers.ListPurchasesHandler())
		}
	}
}
