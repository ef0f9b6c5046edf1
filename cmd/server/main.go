package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/privacy-dispatch/internal/config"
	"github.com/example/privacy-dispatch/internal/directory"
	"github.com/example/privacy-dispatch/internal/dispatch"
	"github.com/example/privacy-dispatch/internal/eta"
	httpapi "github.com/example/privacy-dispatch/internal/http"
	"github.com/example/privacy-dispatch/internal/ingest"
	"github.com/example/privacy-dispatch/internal/logging"
	"github.com/example/privacy-dispatch/internal/matcher"
	"github.com/example/privacy-dispatch/internal/order"
	"github.com/example/privacy-dispatch/internal/payments"
	"github.com/example/privacy-dispatch/internal/privacy"
	"github.com/example/privacy-dispatch/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	bucketer := privacy.NewBucketer(cfg.SignatureCount, cfg.BucketSecret, cfg.FreshnessWindow)

	dir, err := directory.LoadOrSynthesize(cfg.DriverFile, directory.SynthConfig{
		Count:     cfg.DriverCount,
		CenterLat: cfg.CenterLat,
		CenterLon: cfg.CenterLon,
		Spread:    cfg.Spread,
	}, bucketer, logger)
	if err != nil {
		log.Fatalf("driver directory: %v", err)
	}

	var matchDir matcher.Directory = dir
	var ctrlDir directory.Directory = dir
	if cfg.RedisAddr != "" {
		rd := directory.NewRedisDirectory(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		if err := rd.Seed(dir.Snapshot()); err != nil {
			logger.Warn("redis directory seed failed, staying in-memory", "error", err)
		} else {
			matchDir, ctrlDir = rd, rd
		}
	}

	wsreg := dispatch.NewWSRegistry(logger)
	publishers := dispatch.Fanout{wsreg, &dispatch.LogPublisher{Logger: logger}}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publishers = append(publishers, kp)
	}
	if cfg.WebhookURL != "" {
		publishers = append(publishers, dispatch.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookKey))
	}

	var archive storage.OrderArchive = storage.NewMemoryArchive()
	if cfg.PGDSN != "" {
		if pg, err := storage.NewPostgresArchive(cfg.PGDSN); err == nil {
			archive = pg
			runMigrations(cfg.PGDSN)
		} else {
			logger.Warn("postgres unavailable, using memory archive", "error", err)
		}
	}

	ctrl := &order.Controller{
		Store:           order.NewStore(),
		Directory:       ctrlDir,
		Publisher:       publishers,
		Bucketer:        bucketer,
		Logger:          logger,
		Archive:         archive,
		DefaultSpeedMps: cfg.DefaultSpeedMps,
		ETACache:        eta.NewCache(5 * time.Minute),
	}
	if cfg.OSRMEndpoint != "" {
		ctrl.ETAClient = eta.NewOSRMClient(cfg.OSRMEndpoint)
	}
	if os.Getenv("STRIPE_API_KEY") != "" && cfg.FareHoldCents > 0 {
		ctrl.Payments = payments.NewStripeClient()
		ctrl.Fare = order.FareHold{Amount: cfg.FareHoldCents, Currency: cfg.FareCurrency}
	}

	filter := matcher.AvailableOnly
	if cfg.MatchAllStatus {
		filter = matcher.AllDrivers
	}
	m := &matcher.Service{
		Directory: matchDir,
		Filter:    filter,
		Coords:    matcher.CoordinateMode(cfg.CoordinateMode),
	}

	srv := httpapi.NewServer(ctrlDir, ctrl, m, wsreg, logger)
	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("privacy-dispatch listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// optional migration: run migrations/001_create_orders.sql if requested
func runMigrations(dsn string) {
	if os.Getenv("MIGRATE") != "true" {
		return
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("migration db open error: %v", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_orders.sql"))
	if err != nil {
		log.Printf("migration read error: %v", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		log.Printf("migration exec error: %v", err)
		return
	}
	log.Printf("migration applied: 001_create_orders.sql")
}
