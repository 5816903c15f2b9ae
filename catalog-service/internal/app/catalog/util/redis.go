package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pepagora/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	cacheService   = "catalog-service"
	cacheKeyPrefix = "catalog:"
	scanBatchSize  = 100
)

// RedisClient кеширует страницы списков в Redis
// Ключ страницы: catalog:<entity>:list:<нормализованный запрос>
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisClientFromConn(client, ttl), nil
}

// NewRedisClientFromConn оборачивает готовое соединение (используется в тестах с miniredis)
func NewRedisClientFromConn(client *redis.Client, ttl time.Duration) *RedisClient {
	return &RedisClient{client: client, ttl: ttl}
}

func listPrefix(entityType string) string {
	return cacheKeyPrefix + entityType + ":list"
}

func listKey(entityType, key string) string {
	return listPrefix(entityType) + ":" + key
}

func (r *RedisClient) GetList(ctx context.Context, entityType, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, listKey(entityType, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(cacheService, listPrefix(entityType))
			return nil, nil
		}
		metrics.RecordRedisError(cacheService, "get")
		return nil, fmt.Errorf("failed to get %s list from cache: %w", entityType, err)
	}

	metrics.RecordCacheHit(cacheService, listPrefix(entityType))
	return data, nil
}

func (r *RedisClient) SetList(ctx context.Context, entityType, key string, data []byte) error {
	if err := r.client.Set(ctx, listKey(entityType, key), data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(cacheService, "set")
		return fmt.Errorf("failed to set %s list in cache: %w", entityType, err)
	}
	return nil
}

// InvalidateLists удаляет страницы сущности через SCAN по префиксу (без блокирующего KEYS)
func (r *RedisClient) InvalidateLists(ctx context.Context, entityType string) error {
	pattern := listPrefix(entityType) + ":*"

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			metrics.RecordRedisError(cacheService, "scan")
			return fmt.Errorf("failed to scan %s list keys: %w", entityType, err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				metrics.RecordRedisError(cacheService, "del")
				return fmt.Errorf("failed to delete %s list keys: %w", entityType, err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
