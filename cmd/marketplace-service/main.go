package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"property-marketplace-service/internal/adapters/broadcaster"
	"property-marketplace-service/internal/adapters/cache"
	"property-marketplace-service/internal/adapters/db"
	"property-marketplace-service/internal/adapters/memory"
	"property-marketplace-service/internal/adapters/mongo"
	"property-marketplace-service/internal/adapters/redis"
	"property-marketplace-service/internal/adapters/rest"
	"property-marketplace-service/internal/adapters/scheduler"
	"property-marketplace-service/internal/app"
	"property-marketplace-service/internal/config"
	"property-marketplace-service/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Property Marketplace Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the document store
	var (
		propertyRepo outbound.PropertyRepository
		userRepo     outbound.UserRepository
	)
	switch cfg.Store.Driver {
	case config.DriverMongo:
		mongoConn, err := mongo.NewConnection(ctx, &mongo.ConnectionParams{
			Config: &cfg.Store,
			Logger: log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			if err := mongoConn.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("Error closing MongoDB connection")
			}
		}()

		if err := mongoConn.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}

		repoFactory := mongo.NewRepositoryFactory(mongoConn, log.Logger)
		propertyRepo = repoFactory.GetPropertyRepository()
		userRepo = repoFactory.GetUserRepository()
	case config.DriverMemory:
		store := memory.NewStore(&memory.StoreParams{Logger: log.Logger})
		if cfg.Store.SeedFile != "" {
			if err := store.LoadSeed(cfg.Store.SeedFile); err != nil {
				log.Fatal().Err(err).Str("seed_file", cfg.Store.SeedFile).Msg("Failed to load seed data")
			}
		}
		propertyRepo = store.Properties()
		userRepo = store.Users()
	}

	log.Info().Str("driver", cfg.Store.Driver).Msg("Document store initialized")

	// Initialize the payment ledger when configured
	var ledger outbound.PaymentLedger
	if cfg.Database.Enabled() {
		dbConn, err := db.NewConnection(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		if err := dbConn.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply ledger schema")
		}
		ledger = db.NewPaymentRepository(dbConn)
		log.Info().Msg("Payment ledger initialized")
	}

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	log.Info().Msg("Redis connection established")

	// Create Redis broadcaster
	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})
	log.Info().Msg("Redis broadcaster initialized")

	listingCache := cache.NewListingCache(cache.ListingCacheParams{
		RedisClient: redisClient,
		Broadcaster: redisBroadcaster,
		TTL:         cfg.Listing.CacheTTL,
		MaxSize:     cfg.Listing.CacheSize,
		Logger:      log.Logger,
	})
	if err := listingCache.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start listing cache")
	}
	log.Info().Msg("Listing cache started")

	// Create business services
	propertyService := app.NewPropertyService(app.PropertyServiceParams{
		PropertyRepo:   propertyRepo,
		UserRepo:       userRepo,
		Cache:          listingCache,
		IncludePending: cfg.Listing.IncludePending,
		Logger:         log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		PropertyRepo: propertyRepo,
		UserRepo:     userRepo,
		Cache:        listingCache,
		Logger:       log.Logger,
	})
	purchaseService := app.NewPurchaseService(app.PurchaseServiceParams{
		PropertyRepo:   propertyRepo,
		UserRepo:       userRepo,
		Ledger:         ledger,
		Cache:          listingCache,
		ReconcileDelay: cfg.Reconcile.Delay,
		Logger:         log.Logger,
	})
	shortlistService := app.NewShortlistService(app.ShortlistServiceParams{
		PropertyRepo: propertyRepo,
		UserRepo:     userRepo,
		Logger:       log.Logger,
	})
	profileService := app.NewProfileService(app.ProfileServiceParams{
		PropertyRepo: propertyRepo,
		UserRepo:     userRepo,
		Logger:       log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create reconcile scheduler
	reconcileScheduler := scheduler.NewReconcileScheduler(
		scheduler.ReconcileSchedulerParams{
			RedisClient:   redisClient,
			Reconciler:    purchaseService,
			Workers:       cfg.Reconcile.Workers,
			QueueCapacity: config.ReconcileQueueCapacity,
			RetryDelay:    cfg.Reconcile.Delay,
			SweepInterval: cfg.Reconcile.SweepInterval,
			Logger:        log.Logger,
		},
	)

	// Start reconcile scheduler
	reconcileScheduler.Start()
	log.Info().Msg("Reconcile scheduler started")

	// Update purchase service with scheduler
	purchaseService.SetScheduler(reconcileScheduler)

	httpServer := rest.NewServer(rest.ServerParams{
		Config:           cfg,
		PropertyService:  propertyService,
		BidService:       bidService,
		PurchaseService:  purchaseService,
		ShortlistService: shortlistService,
		ProfileService:   profileService,
		Logger:           log.Logger,
	})

	log.Info().Msg("HTTP server initialized")

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting requests before the background workers go away
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	reconcileScheduler.Stop()
	log.Info().Msg("Reconcile scheduler stopped")

	listingCache.Stop(shutdownCtx)
	if err := redisBroadcaster.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis broadcaster")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
