package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/api"
	"github.com/finvera/wealthgate/internal/config"
	"github.com/finvera/wealthgate/internal/database"
	"github.com/finvera/wealthgate/internal/gateway/credentials"
	"github.com/finvera/wealthgate/internal/gateway/refnum"
	"github.com/finvera/wealthgate/internal/gateway/token"
	"github.com/finvera/wealthgate/internal/gateway/transport"
	"github.com/finvera/wealthgate/internal/orders"
	"github.com/finvera/wealthgate/internal/reconcile"
	"github.com/finvera/wealthgate/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var events orders.EventPublisher = orders.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := orders.NewKafkaPublisher(zapLogger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		events = kafkaPub
	}

	repo := orders.NewRepository(db)
	creds := credentials.NewProvider(zapLogger, db, cfg.Gateway.CredentialSecret)
	refnums := refnum.NewRedisGenerator(rdb)
	tc := transport.NewClient(zapLogger, cfg.Gateway.LegacyBaseURL, cfg.Gateway.RESTBaseURL, cfg.Gateway.Timeout)
	tokens := token.NewService(zapLogger, creds, tc, token.NewRedisCache(rdb), cfg.Gateway.TokenTTL, cfg.Gateway.ServiceTokenTTL)

	ordersSvc := orders.NewService(zapLogger, repo, creds, refnums, tokens, tc, cfg.Gateway.Mode, events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler := reconcile.New(zapLogger, repo, events, cfg.Reconcile.Interval, cfg.Reconcile.Threshold)
	go reconciler.Run(ctx)

	server := api.NewServer(zapLogger, ordersSvc, cfg.Auth.JWTSecret)
	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil {
			zapLogger.Fatal("API server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("wealthgate started",
		zap.String("gateway_mode", string(cfg.Gateway.Mode)),
		zap.String("addr", cfg.Server.Addr),
	)

	<-ctx.Done()
	zapLogger.Info("shutting down")
	os.Exit(0)
}
