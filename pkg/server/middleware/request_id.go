package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

type Middleware interface {
	Middleware() fiber.Handler
}

type requestIDMiddleware struct {
	logger *logrus.Logger
}

func NewRequestIDMiddleware(logger *logrus.Logger) Middleware {
	return &requestIDMiddleware{
		logger: logger,
	}
}

// Middleware accepts a caller supplied X-Request-ID or mints one, stores it
// in Locals under the header name and echoes it on the response.
func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Locals(RequestIDHeader, id)
		c.Set(RequestIDHeader, id)

		start := time.Now()
		err := c.Next()

		m.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("request served")
		return err
	}
}
