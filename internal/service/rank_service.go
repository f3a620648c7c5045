package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fukatani/atcoder-problems/internal/dto"
	"github.com/fukatani/atcoder-problems/internal/observability"
	"github.com/fukatani/atcoder-problems/internal/repository"
)

// RankService answers rank and leaderboard queries against the persisted aggregate.
// Leaderboard slices may be served from a short-lived Redis cache; a page observed
// mid-recompute is acceptable, the store gives no cross-statement isolation anyway.
type RankService interface {
	PointSumForUser(ctx context.Context, userID string) (int64, error)
	RankForPoint(ctx context.Context, point int64) (int64, error)
	Leaderboard(ctx context.Context, req dto.LeaderboardRangeRequest) (dto.LeaderboardResponse, error)
}

type rankService struct {
	sums      repository.RatedPointSumRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRankService builds the rank query service. cache may be nil to disable caching.
func NewRankService(
	sums repository.RatedPointSumRepository,
	cache *redis.Client,
	ttl time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) RankService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &rankService{
		sums:      sums,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "rank_service").Logger(),
	}
}

// PointSumForUser returns the stored sum for the user. A user with no stored aggregate
// yields repository.ErrPointSumNotFound, never a default of zero.
func (s *rankService) PointSumForUser(ctx context.Context, userID string) (int64, error) {
	return s.sums.GetUserSum(ctx, userID)
}

// RankForPoint returns the count of users whose sum strictly exceeds point. Ranks are
// 0-indexed and shared between users holding equal sums.
func (s *rankService) RankForPoint(ctx context.Context, point int64) (int64, error) {
	return s.sums.RankByPoint(ctx, point)
}

func (s *rankService) Leaderboard(ctx context.Context, req dto.LeaderboardRangeRequest) (dto.LeaderboardResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LeaderboardResponse{}, err
	}

	cacheKey := fmt.Sprintf("leaderboard:%d:%d", req.Start, req.End)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var entries []dto.LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				observability.LeaderboardRequests().WithLabelValues("hit").Inc()
				return dto.LeaderboardResponse{Entries: entries, CacheHit: true}, nil
			}
		}
	}

	sums, err := s.sums.ListRange(ctx, req.Start, req.End)
	if err != nil {
		observability.LeaderboardRequests().WithLabelValues("error").Inc()
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(sums))
	for _, sum := range sums {
		entries = append(entries, dto.LeaderboardEntry{UserID: sum.UserID, PointSum: sum.PointSum})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache leaderboard page")
			}
		}
	}

	observability.LeaderboardRequests().WithLabelValues("miss").Inc()
	return dto.LeaderboardResponse{Entries: entries}, nil
}
