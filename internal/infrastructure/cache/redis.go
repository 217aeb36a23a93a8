package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joacominatel/pulsefeed/internal/domain"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
)

const (
	// TrendingKey is the sorted set holding trending scores per post id.
	TrendingKey = "pulsefeed:trending"

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second

	// trendingFloor is the score below which decayed posts are dropped.
	trendingFloor = 0.05
)

var ErrRedisNotConnected = errors.New("redis not connected")

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with the trending board operations.
// implements domain.TrendingBoard.
type RedisClient struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 50
	opts.MinIdleConns = 5

	return &RedisClient{
		client: redis.NewClient(opts),
		logger: logger.WithComponent("redis"),
	}, nil
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Info("redis connected")
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Increment adds trending score deltas in a single pipeline.
// zero and negative deltas are skipped.
func (r *RedisClient) Increment(ctx context.Context, deltas map[domain.PostID]float64) error {
	if r == nil || r.client == nil {
		return ErrRedisNotConnected
	}

	ids := make([]domain.PostID, 0, len(deltas))
	for id, d := range deltas {
		if d > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)

	pipe := r.client.Pipeline()
	for _, id := range ids {
		pipe.ZIncrBy(ctx, TrendingKey, deltas[id], id.String())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("failed to update trending board",
			"posts", len(ids),
			"error", err.Error(),
		)
		return fmt.Errorf("zincrby pipeline failed: %w", err)
	}

	r.logger.Debug("trending board updated", "posts", len(ids))
	return nil
}

// Top returns the n highest scored posts, best first.
// equal scores are ordered by post id descending, as redis does.
func (r *RedisClient) Top(ctx context.Context, n int) ([]domain.TrendingEntry, error) {
	if r == nil || r.client == nil {
		return nil, ErrRedisNotConnected
	}
	if n <= 0 {
		return []domain.TrendingEntry{}, nil
	}

	results, err := r.client.ZRevRangeWithScores(ctx, TrendingKey, 0, int64(n-1)).Result()
	if err != nil {
		r.logger.Error("failed to read trending board",
			"limit", n,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	entries := make([]domain.TrendingEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok || member == "" {
			continue
		}
		entries = append(entries, domain.TrendingEntry{PostID: domain.PostID(member), Score: z.Score})
	}
	return entries, nil
}

// Decay multiplies every score by factor and drops posts that fall under
// the floor, so old bursts of activity fade out of the board.
func (r *RedisClient) Decay(ctx context.Context, factor float64) error {
	if r == nil || r.client == nil {
		return ErrRedisNotConnected
	}
	if factor <= 0 || factor >= 1 {
		return fmt.Errorf("decay factor must be in (0, 1), got %v", factor)
	}

	pipe := r.client.TxPipeline()
	pipe.ZUnionStore(ctx, TrendingKey, &redis.ZStore{
		Keys:    []string{TrendingKey},
		Weights: []float64{factor},
	})
	pipe.ZRemRangeByScore(ctx, TrendingKey, "-inf", "("+strconv.FormatFloat(trendingFloor, 'f', -1, 64))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("decaying trending board: %w", err)
	}

	r.logger.Debug("trending board decayed", "factor", factor)
	return nil
}

// Remove drops a post from the board.
func (r *RedisClient) Remove(ctx context.Context, id domain.PostID) error {
	if r == nil || r.client == nil {
		return ErrRedisNotConnected
	}
	if err := r.client.ZRem(ctx, TrendingKey, id.String()).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	return nil
}

// Size returns the number of posts on the board.
func (r *RedisClient) Size(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil {
		return 0, ErrRedisNotConnected
	}

	count, err := r.client.ZCard(ctx, TrendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return count, nil
}

// HealthCheck verifies Redis is responding.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrRedisNotConnected
	}
	return r.client.Ping(ctx).Err()
}
