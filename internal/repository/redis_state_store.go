package repository

import (
	"context"
	"errors"
	"fmt"

	"LunarPulse/internal/domain/models"
	"LunarPulse/pkg/cache"
)

const (
	hotZoneKeyPrefix = "state:hotzone:"
	lunarKeyPrefix   = "state:lunar:"
)

// RedisStateStore persists per-symbol strategy state so the accumulators
// survive restarts. A cache miss is reported as (nil, nil): absent state
// means a fresh start, not a failure.
type RedisStateStore struct {
	c cache.Service
}

func NewRedisStateStore(c cache.Service) *RedisStateStore {
	return &RedisStateStore{c: c}
}

func (s *RedisStateStore) LoadHotZone(ctx context.Context, symbol string) (*models.HotZoneState, error) {
	var state models.HotZoneState
	if err := s.c.Get(ctx, hotZoneKeyPrefix+symbol, &state); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load hotzone state: %w", err)
	}
	return &state, nil
}

func (s *RedisStateStore) SaveHotZone(ctx context.Context, state *models.HotZoneState) error {
	if err := s.c.Set(ctx, hotZoneKeyPrefix+state.Symbol, state, 0); err != nil {
		return fmt.Errorf("save hotzone state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) LoadLunar(ctx context.Context, symbol string) (*models.LunarState, error) {
	var state models.LunarState
	if err := s.c.Get(ctx, lunarKeyPrefix+symbol, &state); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load lunar state: %w", err)
	}
	return &state, nil
}

func (s *RedisStateStore) SaveLunar(ctx context.Context, state *models.LunarState) error {
	if err := s.c.Set(ctx, lunarKeyPrefix+state.Symbol, state, 0); err != nil {
		return fmt.Errorf("save lunar state: %w", err)
	}
	return nil
}
