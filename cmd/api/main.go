package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/iamasit07/connect4-engine/internal/config"
	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/logging"
	"github.com/iamasit07/connect4-engine/internal/repository/postgres"
	"github.com/iamasit07/connect4-engine/internal/repository/redis"
	"github.com/iamasit07/connect4-engine/internal/service/cleanup"
	"github.com/iamasit07/connect4-engine/internal/service/table"
	transportHttp "github.com/iamasit07/connect4-engine/internal/transport/http"
	"github.com/iamasit07/connect4-engine/internal/transport/websocket"
)

func main() {
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../.env")
	}

	// 1. Config and logging
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		logger.Debug().Msg("no .env file found")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Postgres (optional)
	var db *sql.DB
	var rounds *postgres.RoundRepo
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(cfg.DBDriver, cfg.DatabaseURL, postgres.PoolSettings{
			MaxOpenConns:       cfg.DBMaxOpenConns,
			MaxIdleConns:       cfg.DBMaxIdleConns,
			ConnMaxLifetimeMin: cfg.DBConnMaxLifetimeMin,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("database migration completed")
		rounds = postgres.NewRoundRepo(db)
	} else {
		logger.Info().Msg("DATABASE_URL not set, rounds will not be archived")
	}

	// 3. Redis (optional)
	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Warn().Err(err).Msg("redis setup failed")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 4. Table service
	opts := table.Options{
		Defaults: table.Setup{
			Columns: cfg.BoardColumns,
			Rows:    cfg.BoardRows,
			Tokens:  cfg.PlayerTokens,
		},
		MaxColumns: cfg.MaxBoardColumns,
		MaxRows:    cfg.MaxBoardRows,
		Strict:     cfg.StrictInvariants,
		HighScores: domain.NewHighScores(cfg.HighScoreCapacity),
		Sinks:      []table.EventSink{table.LogSink{Logger: logging.Component(logger, "events")}},
		Logger:     logger,
	}
	var roundLister transportHttp.RoundLister
	if rounds != nil {
		opts.Rounds = rounds
		roundLister = rounds
	}
	if redisClient != nil {
		opts.Snapshots = redis.NewSnapshotCache(redisClient, cfg.RedisSnapshotTTL)
		opts.Sinks = append(opts.Sinks, redis.NewEventPublisher(redisClient))
	}
	tables := table.NewManager(opts)

	connManager := websocket.NewConnectionManager()
	tables.AddSink(connManager)

	// 5. Background workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanupWorker := cleanup.NewWorker(tables, connManager, cfg.CleanupInterval, cfg.TableIdleTimeout, logger)
	cleanupWorker.Start(ctx)

	// 6. HTTP and websocket
	wsHandler := websocket.NewHandler(connManager, tables, cfg.JWTSecret, cfg.AllowedOrigins, logging.Component(logger, "ws"))
	router := transportHttp.NewRouter(transportHttp.RouterConfig{
		Tables:         transportHttp.NewTableHandler(tables, cfg.JWTSecret, cfg.TableTokenTTL, logging.Component(logger, "http")),
		Rounds:         transportHttp.NewRoundHandler(roundLister),
		WebSocket:      wsHandler.HandleWebSocket,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	tables.Wait()

	logger.Info().Msg("server exited gracefully")
}
