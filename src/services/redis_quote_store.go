package services

import (
	"context"
	"errors"
	"sort"

	"portfolio/src/models"
	"portfolio/src/repositories"
	redis_utils "portfolio/src/utils/redis"
)

const quoteKeyPrefix = "quote:"

// RedisQuoteStore shares quotes between instances through Redis. Keys never expire.
type RedisQuoteStore struct {
	redis *redis_utils.RedisHandler
}

func NewRedisQuoteStore(handler *redis_utils.RedisHandler) *RedisQuoteStore {
	return &RedisQuoteStore{redis: handler}
}

func (s *RedisQuoteStore) Get(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	var q models.PriceQuote
	if err := s.redis.Get(ctx, quoteKeyPrefix+symbol, &q); err != nil {
		if errors.Is(err, redis_utils.ErrKeyNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (s *RedisQuoteStore) Put(ctx context.Context, q *models.PriceQuote) error {
	return s.redis.Set(ctx, quoteKeyPrefix+q.Symbol, q, 0)
}

func (s *RedisQuoteStore) List(ctx context.Context) ([]models.PriceQuote, error) {
	keys, err := s.redis.Keys(ctx, quoteKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	quotes := make([]models.PriceQuote, 0, len(keys))
	for _, key := range keys {
		var q models.PriceQuote
		if err := s.redis.Get(ctx, key, &q); err != nil {
			if errors.Is(err, redis_utils.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
	return quotes, nil
}
