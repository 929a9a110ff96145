package httpx

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNewCircuitBreaker(t *testing.T) {
	tests := []struct {
		name        string
		breakerName string
		timeout     time.Duration
		maxFailures uint32
	}{
		{name: "Valid circuit breaker", breakerName: "generator-openai", timeout: 30 * time.Second, maxFailures: 3},
		{name: "Zero timeout", breakerName: "zero-timeout-breaker", timeout: 0, maxFailures: 1},
		{name: "Zero max failures falls back to default", breakerName: "zero-failures-breaker", timeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := NewCircuitBreaker(tt.breakerName, tt.timeout, tt.maxFailures)

			wrapper, ok := breaker.(*circuitBreakerWrapper)
			assert.True(t, ok)
			assert.Equal(t, tt.breakerName, wrapper.breaker.Name())
			assert.Equal(t, gobreaker.StateClosed.String(), breaker.State())
		})
	}
}

func TestCircuitBreakerWrapper_Execute_Success(t *testing.T) {
	breaker := NewCircuitBreaker("success-test", 30*time.Second, 3)

	err := breaker.Execute(func() error {
		return nil
	})

	assert.NoError(t, err)
}

func TestCircuitBreakerWrapper_Execute_ErrorWrapping(t *testing.T) {
	breaker := NewCircuitBreaker("error-wrap-test", 30*time.Second, 3)
	testError := errors.New("original error")

	err := breaker.Execute(func() error {
		return testError
	})

	assert.ErrorIs(t, err, testError)
	assert.Contains(t, err.Error(), "breaker (error-wrap-test)")
}

func TestCircuitBreakerWrapper_Execute_PanicScenarios(t *testing.T) {
	tests := []struct {
		name       string
		panicValue interface{}
	}{
		{name: "String panic", panicValue: "test panic"},
		{name: "Error panic", panicValue: errors.New("panic error")},
		{name: "Integer panic", panicValue: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := NewCircuitBreaker("panic-scenario-test", 30*time.Second, 3)

			err := breaker.Execute(func() error {
				panic(tt.panicValue)
			})

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "panic-scenario-test")
			assert.Contains(t, err.Error(), "panic recovered:")
		})
	}
}

func TestCircuitBreakerWrapper_Execute_CircuitOpen(t *testing.T) {
	breaker := NewCircuitBreaker("circuit-open-test", 100*time.Millisecond, 1)

	err := breaker.Execute(func() error {
		return errors.New("first failure")
	})
	assert.Error(t, err)
	assert.False(t, IsCircuitOpen(err))

	called := false
	err = breaker.Execute(func() error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called, "open circuit must not call through")
	assert.True(t, IsCircuitOpen(err))
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, gobreaker.StateOpen.String(), breaker.State())
}

func TestCircuitBreakerWrapper_Execute_CircuitRecovery(t *testing.T) {
	breaker := NewCircuitBreaker("recovery-test", 50*time.Millisecond, 1)

	err := breaker.Execute(func() error {
		return errors.New("trigger failure")
	})
	assert.Error(t, err)

	time.Sleep(100 * time.Millisecond)

	err = breaker.Execute(func() error {
		return nil
	})
	assert.NoError(t, err)
	assert.NotEqual(t, gobreaker.StateOpen.String(), breaker.State())
}

func TestCircuitBreakerWrapper_Execute_ReadyToTrip(t *testing.T) {
	breaker := NewCircuitBreaker("ready-to-trip-test", 30*time.Second, 2)

	err := breaker.Execute(func() error {
		return errors.New("failure 1")
	})
	assert.Error(t, err)
	assert.Equal(t, gobreaker.StateClosed.String(), breaker.State())

	err = breaker.Execute(func() error {
		return errors.New("failure 2")
	})
	assert.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen.String(), breaker.State())
}
