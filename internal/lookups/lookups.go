// Package lookups serves the reference tables field apps render pickers
// from: drop reasons, SKUs, stage names and the caller's pincode mappings.
package lookups

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "lookups:"
	cacheTTL       = 5 * time.Minute
	cacheType      = "lookups"
)

type DropReason struct {
	ID     uuid.UUID `json:"id"`
	Stage  string    `json:"stage"`
	Reason string    `json:"reason"`
}

type SKU struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"productName"`
}

type StageName struct {
	Stage       string `json:"stage"`
	DisplayName string `json:"displayName"`
	SortOrder   int    `json:"sortOrder"`
}

// Store reads the reference tables.
type Store interface {
	DropReasons(ctx context.Context, stage string) ([]DropReason, error)
	SKUs(ctx context.Context) ([]SKU, error)
	Stages(ctx context.Context) ([]StageName, error)
	AllMappings(ctx context.Context) ([]territory.Mapping, error)
}

// Service reads lookups through an optional Redis cache. Reference tables
// change rarely, so entries live for a few minutes.
type Service struct {
	store   Store
	users   territory.Store
	cache   *redis.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a lookup service. cache may be nil.
func NewService(store Store, users territory.Store, cache *redis.Client, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, users: users, cache: cache, log: log, metrics: m}
}

// DropReasons lists active drop reasons, optionally for one stage.
func (s *Service) DropReasons(ctx context.Context, stage string) ([]DropReason, error) {
	stage = strings.ToLower(strings.TrimSpace(stage))
	return cached(ctx, s, "drop_reasons:"+stage, func(ctx context.Context) ([]DropReason, error) {
		return s.store.DropReasons(ctx, stage)
	})
}

// SKUs lists active sample SKUs.
func (s *Service) SKUs(ctx context.Context) ([]SKU, error) {
	return cached(ctx, s, "skus", s.store.SKUs)
}

// Stages lists stage display names in funnel order.
func (s *Service) Stages(ctx context.Context) ([]StageName, error) {
	return cached(ctx, s, "stages", s.store.Stages)
}

// Pincodes lists the caller's pincode mappings. Admins see every mapping.
func (s *Service) Pincodes(ctx context.Context, userID uuid.UUID, admin bool) ([]territory.Mapping, error) {
	if admin {
		return s.allMappings(ctx)
	}
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, territory.ErrUserNotFound) {
		return []territory.Mapping{}, nil
	}
	if err != nil {
		return nil, s.fail("lookups.user", err)
	}
	if strings.EqualFold(user.Role, territory.RoleAdmin) {
		return s.allMappings(ctx)
	}
	mappings, err := s.users.MappingsByEmail(ctx, user.Email)
	if err != nil {
		return nil, s.fail("lookups.mappings", err)
	}
	return mappings, nil
}

func (s *Service) allMappings(ctx context.Context) ([]territory.Mapping, error) {
	mappings, err := s.store.AllMappings(ctx)
	if err != nil {
		return nil, s.fail("lookups.all_mappings", err)
	}
	return mappings, nil
}

func (s *Service) fail(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Internal("failed to load lookups", err).WithOp(op)
}

// cached reads key from Redis or loads and stores it. Cache failures fall
// back to the loader.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		items, err := load(ctx)
		if err != nil {
			return nil, s.fail("lookups."+key, err)
		}
		return items, nil
	}

	raw, err := s.cache.Get(ctx, cacheKeyPrefix+key).Bytes()
	switch {
	case err == nil:
		var items []T
		if jsonErr := json.Unmarshal(raw, &items); jsonErr == nil {
			s.metrics.RecordCache(cacheType, true)
			return items, nil
		}
	case !errors.Is(err, redis.Nil):
		s.log.WithContext(ctx).Warn("lookup cache read failed", "key", key, "error", err)
	}
	s.metrics.RecordCache(cacheType, false)

	items, err := load(ctx)
	if err != nil {
		return nil, s.fail("lookups."+key, err)
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+key, raw, cacheTTL).Err(); err != nil {
			s.log.WithContext(ctx).Warn("lookup cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}
