package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gamehub/internal/auth"
	"gamehub/internal/catalog"
	"gamehub/internal/feed"
	"gamehub/internal/prices"
	"gamehub/internal/refresh"
	"gamehub/internal/stats"
	"gamehub/internal/store"
	"gamehub/internal/watchlist"
	"gamehub/pkg/database"
	"gamehub/pkg/utils"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	srvCfg := utils.LoadServerConfig()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// event feed: TCP for the watch tool, WebSocket for browsers
	hub := feed.NewHub()
	router.GET("/ws", feed.WSHandler(hub))
	tcpSrv := feed.NewServer(srvCfg.FeedAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		hubStats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": hubStats.TCPClients,
				"ws_clients":  hubStats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": hubStats.TCPClients,
			"ws_clients":  hubStats.WSClients,
		})
	})

	// storefront adapters
	registry := store.NewRegistry(store.NewSteam(), store.NewGOG())

	// catalog (public)
	gameRepo := catalog.NewRepo(db)
	priceRepo := prices.NewRepo(db)
	reconciler := catalog.NewReconciler(db, gameRepo, priceRepo, registry, hub)
	catalogHandler := catalog.NewHandler(gameRepo, priceRepo, registry, reconciler)
	catalogHandler.RegisterRoutes(router.Group("/games"))
	catalogHandler.RegisterStoreRoutes(router.Group("/stores"))

	// stats (public)
	statsHandler := stats.NewHandler(stats.NewRepo(db))
	statsHandler.RegisterRoutes(router.Group("/stats"))

	// auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// protected routes
	protected := router.Group("/users")
	protected.Use(auth.Middleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
		})
	})

	watchHandler := watchlist.NewHandler(watchlist.NewRepo(db), gameRepo)
	watchHandler.RegisterRoutes(protected)

	// price refresh: manual trigger plus optional background loop
	refresher := refresh.New(gameRepo, priceRepo, registry, hub, srvCfg.RefreshDelay)
	refreshGroup := router.Group("/refresh")
	refreshGroup.Use(auth.Middleware(tokenSvc, authRepo))
	refresh.NewHandler(refresher).RegisterRoutes(refreshGroup)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	if srvCfg.RefreshInterval > 0 {
		go refresher.RunPeriodic(refreshCtx, srvCfg.RefreshInterval)
		log.Printf("background refresh every %s", srvCfg.RefreshInterval)
	}

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", srvCfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	stopRefresh()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
