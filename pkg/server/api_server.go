package server

import (
	"fmt"

	"github.com/NeuralTrust/SafeFacts/pkg/config"
	handlers "github.com/NeuralTrust/SafeFacts/pkg/handlers/http"
	"github.com/NeuralTrust/SafeFacts/pkg/server/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type (
	APIServerDI struct {
		HandlerTransport handlers.HandlerTransport
		Config           *config.Config
		Logger           *logrus.Logger
	}
	APIServer struct {
		*BaseServer
		handlerTransport handlers.HandlerTransport
		routesReady      bool
	}
)

func NewAPIServer(di APIServerDI) *APIServer {
	return &APIServer{
		BaseServer:       NewBaseServer(di.Config, di.Logger),
		handlerTransport: di.HandlerTransport,
	}
}

func (s *APIServer) Run() error {
	s.SetupRoutes()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting api server")
	return s.Router.Listen(addr)
}

// SetupRoutes registers middleware and routes once.
func (s *APIServer) SetupRoutes() {
	if s.routesReady {
		return
	}
	s.routesReady = true

	s.Router.Use(recover.New())
	s.Router.Use(middleware.NewRequestIDMiddleware(s.Logger).Middleware())
	s.setupHealthCheck()
	s.addRoutes(s.Router.Group(""))
}

func (s *APIServer) addRoutes(router fiber.Router) {
	v1 := router.Group("/api/v1")
	{
		v1.Post("/facts", s.handlerTransport.DecideHandler.Handle)
		v1.Get("/version", s.handlerTransport.GetVersionHandler.Handle)
	}
}
