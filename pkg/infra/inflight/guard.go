package inflight

import (
	"context"
	"errors"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var ErrInFlight = errors.New("a request for this session is already in flight")

//go:generate mockery --name=Guard --dir=. --output=./mocks --filename=guard_mock.go --case=underscore --with-expecter

// Guard admits at most one call per key at a time. New calls for a busy key
// are rejected with ErrInFlight rather than queued.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
