package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/SafeFacts/pkg/config"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const HealthPath = "/health"

type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Router     *fiber.App
	metricsApp *fiber.App
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             cfg.Server.BodyLimit,
	})
	r.Server().NoDefaultServerHeader = true

	return &BaseServer{
		Config: cfg,
		Logger: logger,
		Router: r,
	}
}

func (s *BaseServer) setupHealthCheck() {
	s.Router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *BaseServer) setupMetricsEndpoint() {
	if !s.Config.Metrics.Enabled {
		s.Logger.Info("prometheus metrics are disabled by configuration")
		return
	}
	if s.metricsApp != nil {
		return
	}
	prometheus.Initialize()

	metricsApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	metricsApp.Use(recover.New())

	handler := fasthttpadaptor.NewFastHTTPHandler(prometheus.Handler())
	metricsApp.Get("/metrics", func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})
	s.metricsApp = metricsApp

	go func() {
		addr := fmt.Sprintf(":%d", s.Config.Metrics.Port)
		s.Logger.WithField("addr", addr).Info("starting metrics server")
		if err := metricsApp.Listen(addr); err != nil {
			if !strings.Contains(err.Error(), "address already in use") {
				s.Logger.WithError(err).Error("failed to start metrics server")
			}
		}
	}()
}

func (s *BaseServer) Shutdown() error {
	if s.metricsApp != nil {
		if err := s.metricsApp.Shutdown(); err != nil {
			s.Logger.WithError(err).Warn("failed to stop metrics server")
		}
	}
	return s.Router.Shutdown()
}
