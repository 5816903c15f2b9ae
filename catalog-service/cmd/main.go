package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pepagora/catalog-service/internal/app/catalog/config"
	"pepagora/catalog-service/internal/app/catalog/handler"
	"pepagora/catalog-service/internal/app/catalog/processor"
	"pepagora/catalog-service/internal/app/catalog/repository"
	"pepagora/catalog-service/internal/app/catalog/service"
	"pepagora/catalog-service/internal/app/catalog/util"
	"pepagora/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const serviceName = "catalog-service"

// Повторные попытки подключения к хранилищу: в Docker база может стартовать позже сервиса
var (
	connectAttempts   = 10
	connectRetryDelay = 3 * time.Second
)

// repositories - набор репозиториев выбранного хранилища
type repositories struct {
	categories    repository.CategoryRepository
	subcategories repository.SubcategoryRepository
	products      repository.ProductRepository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashProtocol, cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	// Fatal только здесь: к этому моменту run уже закрыл соединения через defer
	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("Catalog Service failed")
	}
}

// run собирает зависимости и обслуживает HTTP до сигнала остановки
func run(cfg *config.Config) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// === STORAGE ===
	repos, err := setupStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Driver, err)
	}
	defer repos.close()

	// === CACHE ===
	var cache util.ListCache = util.NoopCache{}
	if cfg.Redis.Enabled {
		redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			// кеш не обязателен: работаем напрямую с хранилищем
			logger.Warn().Err(err).Msg("Redis unavailable, list cache disabled")
		} else {
			cache = redisClient
			logger.Info().Str("address", cfg.Redis.Address()).Dur("ttl", cfg.Redis.TTL).Msg("Connected to Redis")
		}
	}
	defer cache.Close()

	// === EVENTS ===
	var publisher util.MessagePublisher = util.NoopPublisher{}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		publisher = util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")
	}
	defer publisher.Close()

	catalogService := service.NewCatalogService(
		repos.categories,
		repos.subcategories,
		repos.products,
		cache,
		publisher,
		service.PageLimits{
			Categories:    cfg.Pagination.MaxCategories,
			Subcategories: cfg.Pagination.MaxSubcategories,
			Products:      cfg.Pagination.MaxProducts,
		},
	)

	// === STATS ===
	if cfg.Stats.Enabled {
		scheduler := processor.NewCronScheduler(catalogService)
		if err := scheduler.Start(ctx, cfg.Stats.Schedule); err != nil {
			return fmt.Errorf("failed to start stats scheduler with schedule %q: %w", cfg.Stats.Schedule, err)
		}
		defer scheduler.Stop()
	}

	// === HTTP ===
	var limiter *handler.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = handler.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx)
	}

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	router := handler.SetupRoutes(catalogHandler, authMiddleware, limiter, cfg.CORS.AllowedOrigins, cfg.Server.TrustedProxies)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("storage", cfg.Storage.Driver).
			Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info().Msg("Shutting down Catalog Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
	return nil
}

// setupStorage подключает выбранное хранилище и готовит схему (индексы / таблицы)
func setupStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := connectDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

		return &repositories{
			categories:    repository.NewPostgresCategoryRepository(db),
			subcategories: repository.NewPostgresSubcategoryRepository(db),
			products:      repository.NewPostgresProductRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	default:
		client, err := connectMongoDB(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)

		indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		defer cancel()
		if err := repository.EnsureMongoIndexes(indexCtx, db); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")

		return &repositories{
			categories:    repository.NewMongoCategoryRepository(db),
			subcategories: repository.NewMongoSubcategoryRepository(db),
			products:      repository.NewMongoProductRepository(db),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := client.Disconnect(ctx); err != nil {
					logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
				}
			},
		}, nil
	}
}

// connectMongoDB подключается к MongoDB с повторными попытками
func connectMongoDB(cfg config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var err error
	for i := 0; i < connectAttempts; i++ {
		var client *mongo.Client
		client, err = tryConnectMongo(clientOptions, cfg.Timeout)
		if err == nil {
			return client, nil
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

func tryConnectMongo(clientOptions *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// connectDB подключается к PostgreSQL через gorm с повторными попытками
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if err = sqlDB.Ping(); err == nil {
				sqlDB.SetMaxOpenConns(25)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}
