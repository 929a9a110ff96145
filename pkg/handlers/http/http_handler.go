package http

import "github.com/gofiber/fiber/v2"

const (
	ErrInvalidJsonPayload = "invalid JSON payload"
	ErrInFlight           = "a request for this session is already in progress"
	ErrGuardUnavailable   = "service temporarily unavailable"

	SessionHeader   = "X-Session-ID"
	RequestIDHeader = "X-Request-ID"
)

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	DecideHandler     Handler
	GetVersionHandler Handler
}
