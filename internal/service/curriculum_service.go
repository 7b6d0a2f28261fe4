package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

const curriculumCacheKey = "curriculum:units"

type curriculumRepository interface {
	ListUnits(ctx context.Context) ([]models.CurriculumUnit, error)
	GetByOrdinal(ctx context.Context, ordinal int) (*models.CurriculumUnit, error)
}

// CurriculumService serves the read-only surah reference table. The
// table never changes mid-term, so lookups are cached in Redis.
type CurriculumService struct {
	repo     curriculumRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCurriculumService constructs the service. The cache client may be
// nil, in which case every read hits the database.
func NewCurriculumService(repo curriculumRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ListUnits returns the full curriculum in ordinal order.
func (s *CurriculumService) ListUnits(ctx context.Context) ([]models.CurriculumUnit, error) {
	if units, ok := s.cachedUnits(ctx); ok {
		return units, nil
	}
	units, err := s.repo.ListUnits(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list curriculum units")
	}
	s.storeUnits(ctx, units)
	return units, nil
}

// GetUnit returns one curriculum unit by ordinal.
func (s *CurriculumService) GetUnit(ctx context.Context, ordinal int) (*models.CurriculumUnit, error) {
	if units, ok := s.cachedUnits(ctx); ok {
		for i := range units {
			if units[i].Ordinal == ordinal {
				return &units[i], nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("curriculum unit %d not found", ordinal))
	}
	unit, err := s.repo.GetByOrdinal(ctx, ordinal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("curriculum unit %d not found", ordinal))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum unit")
	}
	return unit, nil
}

func (s *CurriculumService) cachedUnits(ctx context.Context) ([]models.CurriculumUnit, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, curriculumCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("curriculum cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var units []models.CurriculumUnit
	if err := json.Unmarshal([]byte(raw), &units); err != nil {
		s.logger.Warn("curriculum cache decode failed", zap.Error(err))
		return nil, false
	}
	return units, true
}

func (s *CurriculumService) storeUnits(ctx context.Context, units []models.CurriculumUnit) {
	if s.cache == nil || len(units) == 0 {
		return
	}
	raw, err := json.Marshal(units)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, curriculumCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("curriculum cache write failed", zap.Error(err))
	}
}
