package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fukatani/atcoder-problems/internal/config"
	"github.com/fukatani/atcoder-problems/internal/database"
	"github.com/fukatani/atcoder-problems/internal/dto"
	"github.com/fukatani/atcoder-problems/internal/events"
	"github.com/fukatani/atcoder-problems/internal/models"
	"github.com/fukatani/atcoder-problems/internal/repository"
	"github.com/fukatani/atcoder-problems/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("updater failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Contest{}, &models.ContestProblem{}, &models.Submission{}, &models.RatedPointSum{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	publisher := events.NewNopPublisher()
	if cfg.NatsURL != "" {
		conn, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn, cfg.NatsSubject, logger)
	}

	contestRepo := repository.NewContestRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	sumRepo := repository.NewRatedPointSumRepository(db, cfg.UpsertChunkSize)

	eligibility := service.NewEligibilityService(contestRepo, logger)
	aggregation := service.NewAggregationService(eligibility, submissionRepo, sumRepo, logger)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	ranks := service.NewRankService(sumRepo, redisClient, cfg.LeaderboardCacheTTL, validate, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := aggregation.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("rated point sum recompute failed")
		return err
	}

	event := events.AggregationCompleted{
		RunID:       report.RunID.String(),
		Users:       report.Users,
		Submissions: report.Submissions,
		FinishedAt:  time.Now().UTC(),
	}
	if err := publisher.PublishAggregationCompleted(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish completion event")
	}

	// Warm the first leaderboard page so readers hit a fresh cache after the batch.
	if top, err := ranks.Leaderboard(ctx, dto.LeaderboardRangeRequest{Start: 0, End: 10}); err == nil && len(top.Entries) > 0 {
		logger.Info().
			Str("user_id", top.Entries[0].UserID).
			Int64("point_sum", top.Entries[0].PointSum).
			Msg("current leaderboard top")
	}

	return nil
}
