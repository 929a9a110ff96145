package inflight

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	KeyPattern = "safefacts:inflight:%s"

	defaultTTL     = 60 * time.Second
	releaseTimeout = 2 * time.Second
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

// NewRedisClient connects and pings the server.
func NewRedisClient(config RedisConfig, logger *logrus.Logger) (*redis.Client, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithFields(logrus.Fields{
			"host":  config.Host,
			"port":  config.Port,
			"error": err.Error(),
		}).Error("failed to connect to redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"port": config.Port,
	}).Info("redis connected successfully")
	return client, nil
}

// releaseScript deletes the key only while it still holds the caller's
// token, so a holder whose TTL lapsed cannot free a newer holder's key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisGuardOption func(*redisGuard)

// WithTokenSource replaces the per-acquire token generator.
func WithTokenSource(next func() string) RedisGuardOption {
	return func(g *redisGuard) {
		g.nextToken = next
	}
}

type redisGuard struct {
	client    *redis.Client
	ttl       time.Duration
	logger    *logrus.Logger
	nextToken func() string
}

// NewRedisGuard shares the guard across replicas. The TTL bounds how long a
// crashed holder keeps its key busy.
func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *logrus.Logger, opts ...RedisGuardOption) Guard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	g := &redisGuard{
		client:    client,
		ttl:       ttl,
		logger:    logger,
		nextToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *redisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := fmt.Sprintf(KeyPattern, key)

	token := g.nextToken()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire in-flight key: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			deleted, err := releaseScript.Run(ctx, g.client, []string{redisKey}, token).Int64()
			if err != nil {
				g.logger.WithError(err).WithField("key", redisKey).Warn("failed to release in-flight key")
				return
			}
			if deleted == 0 {
				g.logger.WithField("key", redisKey).Warn("in-flight key expired before release")
			}
		})
	}, nil
}
