package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type Guard struct {
	mock.Mock
}

func (m *Guard) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	var release func()
	if fn, ok := args.Get(0).(func()); ok {
		release = fn
	}
	return release, args.Error(1)
}
