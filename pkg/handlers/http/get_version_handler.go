package http

import (
	"github.com/NeuralTrust/SafeFacts/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getVersionHandler struct {
	logger *logrus.Logger
}

func NewGetVersionHandler(logger *logrus.Logger) Handler {
	return &getVersionHandler{
		logger: logger,
	}
}

// Handle @Summary Get SafeFacts version
// @Description Returns the current version of the service
// @Tags Version
// @Produce json
// @Success 200 {object} version.Info "Version information"
// @Router /api/v1/version [get]
func (h *getVersionHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(version.GetInfo())
}
