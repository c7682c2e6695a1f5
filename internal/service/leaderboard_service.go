package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
)

const (
	leaderboardCacheTTL   = time.Minute
	leaderboardDefaultTop = 10
)

// LeaderboardService serves ranked best-score listings. Results are cached
// for a short window; concurrent rebuilds of the same board are collapsed
// into one query.
type LeaderboardService interface {
	Global(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	ByQuiz(ctx context.Context, quizID string, limit int) ([]dto.LeaderboardEntry, error)
}

type leaderboardService struct {
	attemptRepo domain.AttemptRepository
	cache       domain.Cache
	group       singleflight.Group
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(attemptRepo domain.AttemptRepository, cache domain.Cache) LeaderboardService {
	return &leaderboardService{attemptRepo: attemptRepo, cache: cache}
}

func leaderboardCacheKey(quizID string, limit int) string {
	if quizID == "" {
		return "leaderboard:global:" + strconv.Itoa(limit)
	}
	return "leaderboard:quiz:" + quizID + ":" + strconv.Itoa(limit)
}

func (s *leaderboardService) Global(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	return s.load(ctx, "", limit)
}

func (s *leaderboardService) ByQuiz(ctx context.Context, quizID string, limit int) ([]dto.LeaderboardEntry, error) {
	return s.load(ctx, quizID, limit)
}

func (s *leaderboardService) load(ctx context.Context, quizID string, limit int) ([]dto.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = leaderboardDefaultTop
	}
	key := leaderboardCacheKey(quizID, limit)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var entries []dto.LeaderboardEntry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
		logger.Get().Warn("discarding unreadable leaderboard cache entry", zap.String("key", key))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("leaderboard cache unavailable", zap.String("key", key), zap.Error(err))
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var rows []domain.LeaderboardRow
		var err error
		if quizID == "" {
			rows, err = s.attemptRepo.TopScores(ctx, limit)
		} else {
			rows, err = s.attemptRepo.TopScoresByQuiz(ctx, quizID, limit)
		}
		if err != nil {
			return nil, domain.NewInternalError(err)
		}

		entries := dto.LeaderboardFromRows(rows)
		if encoded, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), leaderboardCacheTTL); err != nil {
				logger.Get().Warn("failed to cache leaderboard", zap.String("key", key), zap.Error(err))
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]dto.LeaderboardEntry), nil
}
