package dependency_container

import (
	"fmt"

	"github.com/NeuralTrust/SafeFacts/pkg/app/generation"
	"github.com/NeuralTrust/SafeFacts/pkg/app/safety"
	"github.com/NeuralTrust/SafeFacts/pkg/config"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	handlers "github.com/NeuralTrust/SafeFacts/pkg/handlers/http"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/filter"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/httpx"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/inflight"
	providersFactory "github.com/NeuralTrust/SafeFacts/pkg/infra/providers/factory"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Container struct {
	Gateway          generation.Gateway
	Engine           safety.Engine
	Guard            inflight.Guard
	HandlerTransport handlers.HandlerTransport
	RedisClient      *redis.Client
}

func NewContainer(
	cfg *config.Config,
	logger *logrus.Logger,
	locator providersFactory.ProviderLocator,
) (*Container, error) {
	policy, err := persona.NewPolicy(cfg.Policy.MaxAge.Child, cfg.Policy.MaxAge.Teenager, cfg.Policy.MaxAge.Adult)
	if err != nil {
		return nil, fmt.Errorf("invalid persona policy: %w", err)
	}

	client, err := locator.Get(cfg.Generator.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get generator client: %w", err)
	}

	breaker := httpx.NewCircuitBreaker(
		fmt.Sprintf("generator-%s", cfg.Generator.Provider),
		cfg.Breaker.Timeout,
		cfg.Breaker.MaxFailures,
	)

	gateway := generation.NewGateway(client, breaker, generation.Options{
		Provider:           cfg.Generator.Provider,
		Config:             cfg.Generator.ProviderConfig(),
		Timeout:            cfg.Generator.Timeout,
		ExplanationTimeout: cfg.Generator.ExplanationTimeout,
	}, logger)

	engine := safety.NewEngine(
		gateway,
		policy,
		filter.NewKeywordFilter(cfg.Policy.ExtraKeywords...),
		safety.Settings{
			UnknownRatingAge: cfg.Policy.UnknownRatingAge,
			PostFilterAdult:  cfg.Policy.PostFilterAdult,
			MaxTitleLength:   cfg.Policy.MaxTitleLength,
		},
		logger,
	)

	c := &Container{
		Gateway: gateway,
		Engine:  engine,
	}

	switch cfg.Guard.Backend {
	case inflight.BackendRedis:
		redisClient, err := inflight.NewRedisClient(inflight.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return nil, err
		}
		c.RedisClient = redisClient
		c.Guard = inflight.NewRedisGuard(redisClient, cfg.Guard.TTL, logger)
	default:
		c.Guard = inflight.NewMemoryGuard()
	}

	c.HandlerTransport = handlers.HandlerTransport{
		DecideHandler:     handlers.NewDecideHandler(logger, c.Engine, c.Guard),
		GetVersionHandler: handlers.NewGetVersionHandler(logger),
	}

	logger.WithFields(logrus.Fields{
		"provider": cfg.Generator.Provider,
		"model":    cfg.Generator.Model,
		"guard":    cfg.Guard.Backend,
	}).Info("dependencies initialized")

	return c, nil
}

func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
