package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"moviedash/internal/config"
	"moviedash/internal/etl"
	"moviedash/internal/movies"
	"moviedash/internal/refresh"
	"moviedash/pkg/database"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbCfg := database.DefaultConfig()
	if cfg.Pipeline.DBPath != "" {
		dbCfg.Path = cfg.Pipeline.DBPath
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Refresh feed first so binding errors surface early.
	hub := refresh.NewHub()
	router.GET("/ws", refresh.WSHandler(hub))
	feedSrv := refresh.NewServer(cfg.Server.FeedAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Dashboard filter defaults, so the UI and the API agree on the
	// initial slider positions.
	router.GET("/defaults", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"min_rating": cfg.Defaults.MinRating,
			"min_votes":  cfg.Defaults.MinVotes,
		})
	})

	// Query service (public, read-only)
	movieRepo := movies.NewRepo(db)
	movieHandler := movies.NewHandler(movieRepo)
	movieHandler.RegisterRoutes(router.Group("/movies"))

	// ETL trigger
	loader := etl.NewLoader(db)
	var archiver *etl.Archiver
	if cfg.Pipeline.Archive {
		archiver = etl.NewArchiver(cfg.Pipeline.ArchiveDir)
	}
	etlHandler := etl.NewHandler(loader, archiver, hub, cfg.Pipeline.SourcePath)
	etlHandler.RegisterRoutes(router.Group("/etl"))

	httpSrv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := feedSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.Server.HTTPAddr)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := feedSrv.Close(); err != nil {
		log.Printf("feed shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
