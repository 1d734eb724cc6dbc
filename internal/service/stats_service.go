package service

import (
	"context"
	"time"

	"github.com/gigwork/backend/internal/repository"
)

// StatsRepository описывает доступ StatsService к агрегатам платформы.
type StatsRepository interface {
	GetPlatformStats(ctx context.Context) (*repository.PlatformStats, error)
}

// StatsService отдаёт публичную статистику платформы с кэшированием:
// агрегирующие запросы тяжёлые, свежесть в пределах минуты допустима.
type StatsService struct {
	repo  StatsRepository
	cache *CacheService
	ttl   time.Duration
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(repo StatsRepository, cache *CacheService) *StatsService {
	return &StatsService{
		repo:  repo,
		cache: cache,
		ttl:   time.Minute,
	}
}

// GetPlatformStats возвращает сводку по платформе из кэша или БД.
func (s *StatsService) GetPlatformStats(ctx context.Context) (*repository.PlatformStats, error) {
	if cached, ok := s.cache.Get(PlatformStatsCacheKey); ok {
		if stats, ok := cached.(*repository.PlatformStats); ok {
			return stats, nil
		}
	}

	stats, err := s.repo.GetPlatformStats(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(PlatformStatsCacheKey, stats, s.ttl)
	return stats, nil
}
