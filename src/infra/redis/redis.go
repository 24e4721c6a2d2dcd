package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client            redis.UniversalClient
	defaultTTLSeconds time.Duration
}

func NewRedisClient(addrs string, poolSize int, defaultTTLSeconds time.Duration) *RedisClient {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs: strings.Split(addrs, ","),

		// Pool settings para alta concorrência
		PoolSize:     poolSize,
		MinIdleConns: 10,

		MaxRedirects: 3,

		// Timeouts curtos: cache nunca pode segurar a requisição
		DialTimeout:  5 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return NewRedisClientWithUniversal(client, defaultTTLSeconds)
}

// NewRedisClientWithUniversal aceita qualquer cliente (cluster, single node, miniredis nos testes).
func NewRedisClientWithUniversal(client redis.UniversalClient, defaultTTLSeconds time.Duration) *RedisClient {
	return &RedisClient{
		client:            client,
		defaultTTLSeconds: defaultTTLSeconds,
	}
}

func (rc *RedisClient) SetKey(ctx context.Context, key string, value string) error {
	fields := map[string]interface{}{
		"data":      value,
		"cached_at": time.Now().Unix(),
	}

	err := rc.client.HSet(ctx, key, fields).Err()
	if err != nil {
		return err
	}

	return rc.client.Expire(ctx, key, rc.defaultTTLSeconds).Err()
}

// SetWithRegistry grava várias chaves e registra cada uma nos sets de registry
// informados, para que possam ser invalidadas em grupo depois.
func (rc *RedisClient) SetWithRegistry(ctx context.Context, keyValues map[string]string, registryKeys map[string][]string) error {
	pipe := rc.client.Pipeline()
	now := time.Now().Unix()

	for key, value := range keyValues {
		pipe.HSet(ctx, key, map[string]interface{}{
			"data":      value,
			"cached_at": now,
		})
		pipe.Expire(ctx, key, rc.defaultTTLSeconds)
	}

	for registryKey, members := range registryKeys {
		if len(members) == 0 {
			continue
		}
		args := make([]interface{}, len(members))
		for i, member := range members {
			args[i] = member
		}
		pipe.SAdd(ctx, registryKey, args...)
		pipe.Expire(ctx, registryKey, rc.defaultTTLSeconds)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (rc *RedisClient) GetKey(ctx context.Context, key string) (string, bool, error) {
	result := rc.client.HGet(ctx, key, "data")

	// Cache miss
	if result.Err() == redis.Nil {
		return "", false, nil
	}
	if result.Err() != nil {
		return "", false, result.Err()
	}

	return result.Val(), true, nil
}

// GetMultiple busca várias chaves num único round trip. Chaves ausentes não aparecem no mapa.
func (rc *RedisClient) GetMultiple(ctx context.Context, keys []string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	pipe := rc.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGet(ctx, key, "data")
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	for i, cmd := range cmds {
		if cmd.Err() == redis.Nil {
			continue
		}
		if cmd.Err() != nil {
			return nil, cmd.Err()
		}
		found[keys[i]] = cmd.Val()
	}

	return found, nil
}

func (rc *RedisClient) GetMultipleSetMembers(ctx context.Context, setKeys []string) (map[string][]string, error) {
	pipe := rc.client.Pipeline()
	cmds := make(map[string]*redis.StringSliceCmd, len(setKeys))
	for _, key := range setKeys {
		cmds[key] = pipe.SMembers(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	result := make(map[string][]string, len(setKeys))
	for key, cmd := range cmds {
		members, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		result[key] = members
	}

	return result, nil
}

// Invalidação em cluster requer cuidado especial: as chaves podem estar em slots
// diferentes, então o DEL é feito uma a uma.
func (rc *RedisClient) InvalidateKeys(ctx context.Context, keys []string) error {
	var errors []string

	for _, key := range keys {
		if err := rc.client.Del(ctx, key).Err(); err != nil {
			errors = append(errors, fmt.Sprintf("key %s: %v", key, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalidation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (rc *RedisClient) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
