package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/SafeFacts/pkg/config"
	"github.com/NeuralTrust/SafeFacts/pkg/dependency_container"
	infraLogger "github.com/NeuralTrust/SafeFacts/pkg/infra/logger"
	providersFactory "github.com/NeuralTrust/SafeFacts/pkg/infra/providers/factory"
	"github.com/NeuralTrust/SafeFacts/pkg/server"
	"github.com/NeuralTrust/SafeFacts/pkg/version"
	"github.com/joho/godotenv"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger, closeLogs, err := infraLogger.NewLogger(infraLogger.Options{
		File: os.Getenv("LOG_FILE"),
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogs()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	container, err := dependency_container.NewContainer(cfg, logger, providersFactory.NewProviderLocator())
	if err != nil {
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	srv := server.NewAPIServer(server.APIServerDI{
		HandlerTransport: container.HandlerTransport,
		Config:           cfg,
		Logger:           logger,
	})

	logger.WithField("version", version.GetInfo().Version).Info("starting safefacts")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server failed")
		}
	case <-quit:
		logger.Info("shutting down server")
	}

	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
	}
	if err := container.Close(); err != nil {
		logger.WithError(err).Warn("error closing redis client")
	}
	logger.Info("server gracefully stopped")
}
