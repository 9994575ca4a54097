package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"deeds_api/internal/domain/model"
	"deeds_api/internal/domain/repository"
	"deeds_api/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// LeaderboardService serves the public ranking and profile aggregates.
// The ranking is cached in redis for a short TTL and invalidated when
// a deed is verified; the cache is strictly best-effort.
type LeaderboardService struct {
	userRepo repository.UserRepository
	rdb      *redis.Client
}

func NewLeaderboardService(userRepo repository.UserRepository, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{userRepo: userRepo, rdb: rdb}
}

const leaderboardCacheKey = "deeds:leaderboard"

func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, leaderboardCacheKey).Bytes(); err == nil {
			var cached []model.LeaderboardEntry
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	entries, err := s.userRepo.GetLeaderboard(ctx, config.AppConfig.LeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, leaderboardCacheKey, data, config.AppConfig.LeaderboardCacheTTL).Err(); err != nil {
				log.Printf("WARN: failed to cache leaderboard: %v", err)
			}
		}
	}
	return entries, nil
}

func (s *LeaderboardService) InvalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		log.Printf("WARN: failed to invalidate leaderboard cache: %v", err)
	}
}

func (s *LeaderboardService) GetProfile(ctx context.Context, userID int64) (*model.ProfileSummary, error) {
	summary, err := s.userRepo.GetProfileSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
