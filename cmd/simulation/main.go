package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

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
)

const (
	numSellers    = 3
	numBuyers     = 5
	minPurchases  = 20
	maxPurchases  = 80
	serverAddress = "http://localhost:8080"
)

var assetRefs = []string{"CARD_PIKACHU_1999", "CARD_CHARIZARD_HOLO", "CARD_JORDAN_ROOKIE", "CARD_MANTLE_1952", "CARD_BLACK_LOTUS"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the trading API for one user
type simulationClient struct {
	baseURL   string
	userID    string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
	statsMu   *sync.Mutex
}

// sharedStats is the cross-client stats registry
var sharedStats = map[string]*routeStats{
	"auth":      {name: "Authentication"},
	"topup":     {name: "Wallet Top-Up"},
	"listing":   {name: "Create Listing"},
	"buy":       {name: "Buy Shares"},
	"resale":    {name: "List For Resale"},
	"resbuy":    {name: "Buy Resale"},
	"cancel":    {name: "Cancel Resale"},
	"verify":    {name: "Submit Verification"},
	"portfolio": {name: "Get Portfolio"},
	"balance":   {name: "Get Balance"},
}

var sharedStatsMu sync.Mutex

// newSimulationClient creates and authenticates a client for the given user
// Credentials must already be registered with the auth service
func newSimulationClient(userID string) (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: serverAddress,
		userID:  userID,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats:   sharedStats,
		statsMu: &sharedStatsMu,
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate %s: %w", userID, err)
	}
	sc.authToken = token

	return sc, nil
}

func (sc *simulationClient) track(route string, start time.Time, failed bool) {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	sc.stats[route].addDuration(time.Since(start))
	if failed {
		sc.stats[route].failures++
	}
}

// doJSON issues an authenticated JSON request and decodes the envelope data
func (sc *simulationClient) doJSON(method, path string, body interface{}, idempotent bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("auth", start, failed) }()

	credentials := map[string]string{
		"api_key":    sc.userID,
		"api_secret": sc.userID + "-secret",
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		failed = true
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		failed = true
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		failed = true
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		failed = true
		return "", err
	}

	return result.Data.Token, nil
}

// topUp credits the user's wallet
func (sc *simulationClient) topUp(amountCents int64) error {
	start := time.Now()
	var failed bool
	defer func() { sc.track("topup", start, failed) }()

	err := sc.doJSON("POST", "/api/v1/wallet/topup", map[string]int64{"amount_cents": amountCents}, true, nil)
	failed = err != nil
	return err
}

// createListing fractionalizes an asset and returns the listing ID
func (sc *simulationClient) createListing(assetRef string, totalShares, priceCents, minShares int64, verify bool) (string, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("listing", start, failed) }()

	var listing shares.ShareListing
	err := sc.doJSON("POST", "/api/v1/listings", map[string]interface{}{
		"asset_ref":                   assetRef,
		"total_shares":                totalShares,
		"share_price_cents":           priceCents,
		"min_shares":                  minShares,
		"daily_verification_required": verify,
	}, false, &listing)
	if err != nil {
		failed = true
		return "", err
	}
	if listing.ListingID == "" {
		failed = true
		return "", fmt.Errorf("no listing ID in response")
	}
	return listing.ListingID, nil
}

// buyShares buys quantity shares of a listing
func (sc *simulationClient) buyShares(listingID string, quantity int64) (*purchase.Purchase, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("buy", start, failed) }()

	var result purchase.BuyResponse
	err := sc.doJSON("POST", fmt.Sprintf("/api/v1/listings/%s/buy", listingID),
		map[string]int64{"quantity": quantity}, true, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	return result.Purchase, nil
}

// listForResale offers shares on the secondary market
func (sc *simulationClient) listForResale(listingID string, sharesToList, priceCents int64) (string, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("resale", start, failed) }()

	var offer resale.ResaleListing
	err := sc.doJSON("POST", "/api/v1/resale", map[string]interface{}{
		"listing_id":            listingID,
		"shares":                sharesToList,
		"price_per_share_cents": priceCents,
	}, false, &offer)
	if err != nil {
		failed = true
		return "", err
	}
	return offer.ResaleID, nil
}

// buyResale fills part of a resale offer
func (sc *simulationClient) buyResale(resaleID string, quantity int64) (*resale.ResaleTrade, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("resbuy", start, failed) }()

	var result resale.TradeResponse
	err := sc.doJSON("POST", fmt.Sprintf("/api/v1/resale/%s/buy", resaleID),
		map[string]int64{"quantity": quantity}, true, &result)
	if err != nil {
		failed = true
		return nil, err
	}
	return result.Trade, nil
}

// cancelResale withdraws a resale offer
func (sc *simulationClient) cancelResale(resaleID string) error {
	start := time.Now()
	var failed bool
	defer func() { sc.track("cancel", start, failed) }()

	err := sc.doJSON("POST", fmt.Sprintf("/api/v1/resale/%s/cancel", resaleID), nil, false, nil)
	failed = err != nil
	return err
}

// submitVerification records a proof of possession for a listing
func (sc *simulationClient) submitVerification(listingID string) error {
	start := time.Now()
	var failed bool
	defer func() { sc.track("verify", start, failed) }()

	err := sc.doJSON("POST", fmt.Sprintf("/api/v1/listings/%s/verify", listingID), nil, false, nil)
	failed = err != nil
	return err
}

// getPortfolio fetches the user's ownership summary
func (sc *simulationClient) getPortfolio() (*ownership.Summary, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("portfolio", start, failed) }()

	var summary ownership.Summary
	err := sc.doJSON("GET", "/api/v1/portfolio", nil, false, &summary)
	if err != nil {
		failed = true
		return nil, err
	}
	return &summary, nil
}

// getBalance fetches the user's wallet balance
func (sc *simulationClient) getBalance() (*wallet.BalanceResponse, error) {
	start := time.Now()
	var failed bool
	defer func() { sc.track("balance", start, failed) }()

	var balance wallet.BalanceResponse
	err := sc.doJSON("GET", "/api/v1/wallet/balance", nil, false, &balance)
	if err != nil {
		failed = true
		return nil, err
	}
	return &balance, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 110))
	fmt.Printf("%-22s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 110))

	for _, stats := range sharedStats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-22s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 110))
}

// main runs the trading simulation
// It starts a local API server, fractionalizes a handful of assets and
// simulates concurrent buyers on the primary and secondary markets
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// Authenticate sellers and buyers
	sellers := make([]*simulationClient, 0, numSellers)
	for i := 0; i < numSellers; i++ {
		sc, err := newSimulationClient(fmt.Sprintf("seller_%d", i))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize seller client")
		}
		sellers = append(sellers, sc)
	}

	buyers := make([]*simulationClient, 0, numBuyers)
	for i := 0; i < numBuyers; i++ {
		sc, err := newSimulationClient(fmt.Sprintf("buyer_%d", i))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize buyer client")
		}
		buyers = append(buyers, sc)
	}

	// Sellers fractionalize assets
	var listingIDs []string
	listingAssets := make(map[string]string)
	for i, seller := range sellers {
		assetRef := assetRefs[i%len(assetRefs)]
		totalShares := int64(rand.Intn(400) + 100)
		priceCents := int64(rand.Intn(4900) + 100)
		minShares := int64(rand.Intn(5) + 1)
		requiresVerification := i%2 == 0

		listingID, err := seller.createListing(assetRef, totalShares, priceCents, minShares, requiresVerification)
		if err != nil {
			log.Error().Err(err).Str("asset_ref", assetRef).Msg("Failed to create listing")
			continue
		}
		listingIDs = append(listingIDs, listingID)
		listingAssets[listingID] = assetRef

		log.Info().
			Str("listing_id", listingID).
			Str("asset_ref", assetRef).
			Int64("total_shares", totalShares).
			Int64("share_price_cents", priceCents).
			Msg("Listing created")
	}
	if len(listingIDs) == 0 {
		log.Fatal().Msg("No listings created, aborting simulation")
	}

	// Buyers fund their wallets
	for _, buyer := range buyers {
		if err := buyer.topUp(50_000_00); err != nil {
			log.Fatal().Err(err).Str("user_id", buyer.userID).Msg("Failed to top up wallet")
		}
	}

	targetPurchases := rand.Intn(maxPurchases-minPurchases) + minPurchases
	log.Info().Int("target_purchases", targetPurchases).Msg("Starting simulation")

	stats := struct {
		Purchases     int
		Oversold      int
		FailedBuys    int
		ResaleOffers  int
		ResaleTrades  int
		Cancellations int
		Verifications int
		VolumeCents   int64
		StartTime     time.Time
		Assets        map[string]int
	}{
		StartTime: time.Now(),
		Assets:    make(map[string]int),
	}

	// Primary market phase: concurrent buyers race for supply
	var wg sync.WaitGroup
	purchasesChan := make(chan *purchase.Purchase, targetPurchases)
	for i, buyer := range buyers {
		wg.Add(1)
		go func(workerID int, sc *simulationClient) {
			defer wg.Done()
			runBuyer(workerID, targetPurchases/numBuyers, sc, listingIDs, purchasesChan)
		}(i, buyer)
	}
	wg.Wait()
	close(purchasesChan)

	for p := range purchasesChan {
		stats.Purchases++
		stats.VolumeCents += p.CostCents
		stats.Assets[listingAssets[p.ListingID]]++
	}

	// Secondary market phase: buyers relist part of their holdings
	for _, buyer := range buyers {
		summary, err := buyer.getPortfolio()
		if err != nil {
			log.Error().Err(err).Str("user_id", buyer.userID).Msg("Failed to fetch portfolio")
			continue
		}
		for _, holding := range summary.Holdings {
			if holding.SharesOwned < 4 {
				continue
			}
			toList := holding.SharesOwned / 2
			markup := int64(float64(holding.SharePriceCents) * 1.2)

			resaleID, err := buyer.listForResale(holding.ListingID, toList, markup)
			if err != nil {
				log.Error().Err(err).Str("listing_id", holding.ListingID).Msg("Failed to list for resale")
				continue
			}
			stats.ResaleOffers++

			// A third of offers get cancelled, the rest get a taker
			if rand.Intn(3) == 0 {
				if err := buyer.cancelResale(resaleID); err != nil {
					log.Error().Err(err).Str("resale_id", resaleID).Msg("Failed to cancel resale")
					continue
				}
				stats.Cancellations++
				continue
			}

			taker := buyers[rand.Intn(len(buyers))]
			if taker.userID == buyer.userID {
				continue
			}
			trade, err := taker.buyResale(resaleID, toList)
			if err != nil {
				log.Error().Err(err).Str("resale_id", resaleID).Msg("Failed to buy resale shares")
				continue
			}
			stats.ResaleTrades++
			stats.VolumeCents += trade.GrossCents
			log.Info().
				Str("trade_id", trade.TradeID).
				Str("buyer_id", taker.userID).
				Str("seller_id", buyer.userID).
				Int64("gross_cents", trade.GrossCents).
				Msg("Resale trade completed")
		}
	}

	// Verification phase: sellers re-verify their listings
	for i, seller := range sellers {
		if i%2 != 0 || i >= len(listingIDs) {
			continue
		}
		if err := seller.submitVerification(listingIDs[i]); err != nil {
			log.Error().Err(err).Str("listing_id", listingIDs[i]).Msg("Failed to submit verification")
			continue
		}
		stats.Verifications++
	}

	// Print summary
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("FRACTIONAL TRADING SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Trade Statistics
----------------
Primary Purchases: %d
Resale Offers:     %d
Resale Trades:     %d
Cancellations:     %d
Verifications:     %d
Total Volume:      $%.2f
Duration:          %v

Asset Distribution
------------------
`, stats.Purchases, stats.ResaleOffers, stats.ResaleTrades, stats.Cancellations,
		stats.Verifications, float64(stats.VolumeCents)/100, duration.Round(time.Millisecond))

	// Print asset distribution with simple ASCII bar chart
	maxAssetCount := 0
	for _, count := range stats.Assets {
		if count > maxAssetCount {
			maxAssetCount = count
		}
	}
	for asset, count := range stats.Assets {
		barLength := int(float64(count) / float64(maxAssetCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-22s: %s (%d)\n", asset, bar, count)
	}

	// Final balances
	fmt.Println("\nFinal Balances")
	fmt.Println("--------------")
	for _, sc := range append(append([]*simulationClient{}, sellers...), buyers...) {
		balance, err := sc.getBalance()
		if err != nil {
			log.Error().Err(err).Str("user_id", sc.userID).Msg("Failed to fetch balance")
			continue
		}
		fmt.Printf("%-12s: $%.2f\n", sc.userID, float64(balance.BalanceCents)/100)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("purchases", stats.Purchases).
		Int("resale_trades", stats.ResaleTrades).
		Int64("volume_cents", stats.VolumeCents).
		Dur("duration", duration).
		Msg("Simulation completed")

	printPerformanceStats()
}

// runBuyer issues numPurchases random share purchases against random listings
// Runs as a worker goroutine, sending completed purchases to purchasesChan
func runBuyer(workerID, numPurchases int, sc *simulationClient, listingIDs []string, purchasesChan chan<- *purchase.Purchase) {
	for i := 0; i < numPurchases; i++ {
		listingID := listingIDs[rand.Intn(len(listingIDs))]
		quantity := int64(rand.Intn(10) + 1)

		p, err := sc.buyShares(listingID, quantity)
		if err != nil {
			// Oversold and below-minimum failures are expected under
			// contention; they are part of what the simulation measures.
			log.Warn().Err(err).
				Int("worker_id", workerID).
				Str("listing_id", listingID).
				Int64("quantity", quantity).
				Msg("Purchase rejected")
			continue
		}

		purchasesChan <- p
		log.Info().
			Int("worker_id", workerID).
			Str("purchase_id", p.PurchaseID).
			Str("listing_id", listingID).
			Int64("quantity", quantity).
			Int64("cost_cents", p.CostCents).
			Msg("Shares purchased")

		// Random sleep between purchases
		time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	}
}

// startServer initializes and starts the trading API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase(os.Getenv("DB_PATH"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService(middleware.JWTSecret())
	for i := 0; i < numSellers; i++ {
		userID := fmt.Sprintf("seller_%d", i)
		authService.RegisterAPICredentials(userID, userID+"-secret")
	}
	for i := 0; i < numBuyers; i++ {
		userID := fmt.Sprintf("buyer_%d", i)
		authService.RegisterAPICredentials(userID, userID+"-secret")
	}

	feeSchedule := fees.DefaultSchedule()
	walletService := wallet.NewService(db)
	sharesService := shares.NewService(db)
	ownershipService := ownership.NewService(db)
	purchaseService := purchase.NewService(db, walletService, sharesService, ownershipService, feeSchedule, purchase.Config{})
	resaleService := resale.NewService(db, walletService, ownershipService, sharesService, feeSchedule)
	ownershipService.SetListedSharesFunc(resaleService.ActiveListedShares)
	verificationService := verification.NewService(db)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	walletHandlers := wallet.NewGinHandlers(walletService)
	sharesHandlers := shares.NewGinHandlers(sharesService)
	purchaseHandlers := purchase.NewGinHandlers(purchaseService)
	resaleHandlers := resale.NewGinHandlers(resaleService)
	ownershipHandlers := ownership.NewGinHandlers(ownershipService)
	verificationHandlers := verification.NewGinHandlers(verificationService)

	// Setup routes
	setupRoutes(router, authHandlers, walletHandlers, sharesHandlers, purchaseHandlers, resaleHandlers, ownershipHandlers, verificationHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
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
