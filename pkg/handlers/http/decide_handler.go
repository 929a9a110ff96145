package http

import (
	"errors"

	"github.com/NeuralTrust/SafeFacts/pkg/app/safety"
	"github.com/NeuralTrust/SafeFacts/pkg/handlers/http/request"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/inflight"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type decideHandler struct {
	logger *logrus.Logger
	engine safety.Engine
	guard  inflight.Guard
}

func NewDecideHandler(logger *logrus.Logger, engine safety.Engine, guard inflight.Guard) Handler {
	return &decideHandler{
		logger: logger,
		engine: engine,
		guard:  guard,
	}
}

// Handle @Summary Get a safe movie fact
// @Description Decides whether a fact about the title may be shown to the persona
// @Tags Facts
// @Accept json
// @Produce json
// @Param request body request.DecideRequest true "Title and persona"
// @Success 200 {object} verdict.Verdict "Safety verdict"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Request already in flight"
// @Router /api/v1/facts [post]
func (h *decideHandler) Handle(c *fiber.Ctx) error {
	var req request.DecideRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to parse decide request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	p, err := req.Validate()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	requestID, ok := c.Locals(RequestIDHeader).(string)
	if !ok || requestID == "" {
		requestID = uuid.NewString()
	}
	sessionKey := c.Get(SessionHeader)
	if sessionKey == "" {
		sessionKey = c.IP()
	}

	ctx := safety.WithRequestID(c.UserContext(), requestID)

	release, err := h.guard.Acquire(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, inflight.ErrInFlight) {
			prometheus.InflightRejectedTotal.Inc()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrInFlight})
		}
		h.logger.WithError(err).WithField("request_id", requestID).Error("in-flight guard unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": ErrGuardUnavailable})
	}
	defer release()

	v := h.engine.Decide(ctx, req.Title, p)
	return c.Status(fiber.StatusOK).JSON(v)
}
