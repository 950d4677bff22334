package redis

import (
	redis_utils "Moneta/services/redis/utils"

	"Moneta/models/game"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// MonthPricesTTL bounds the price cache: entries expire instead of piling
// up, so the cache never outgrows the months actively being played.
const MonthPricesTTL = 24 * time.Hour

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveMonthPrices caches one calendar month's full price snapshot.
// Key format: "prices:{year}:{month}"
func (rc *RedisClient) SaveMonthPrices(year, month int, snapshot game.PriceSnapshot) error {
	key := redis_utils.FormatMonthPricesKey(year, month)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("error marshaling price snapshot: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, MonthPricesTTL).Err()
}

// GetMonthPrices retrieves a cached month snapshot. A cache miss returns
// (nil, nil) so callers can fall through to the price repository.
func (rc *RedisClient) GetMonthPrices(year, month int) (game.PriceSnapshot, error) {
	key := redis_utils.FormatMonthPricesKey(year, month)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting cached prices: %v", err)
	}

	var snapshot game.PriceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("error unmarshaling cached prices: %v", err)
	}
	return snapshot, nil
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
