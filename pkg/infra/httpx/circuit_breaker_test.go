package httpx

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_PassesThroughErrors(t *testing.T) {
	breaker := NewCircuitBreaker("reputation", 30*time.Second, 3)

	assert.NoError(t, breaker.Execute(func() error { return nil }))

	testError := errors.New("upstream 500")
	err := breaker.Execute(func() error { return testError })
	assert.ErrorIs(t, err, testError)
	assert.Contains(t, err.Error(), "reputation")
}

func TestCircuitBreaker_RecoversPanics(t *testing.T) {
	for _, v := range []interface{}{"boom", errors.New("bad"), 42} {
		breaker := NewCircuitBreaker("panic", 30*time.Second, 3)
		err := breaker.Execute(func() error { panic(v) })
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "panic recovered:")
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	breaker := NewCircuitBreaker("llm", 30*time.Second, 2, func(_ string, from, to string) {
		transitions = append(transitions, from+"->"+to)
	})

	for i := 0; i < 2; i++ {
		_ = breaker.Execute(func() error { return errors.New("timeout") })
	}
	called := false
	err := breaker.Execute(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
	assert.Equal(t, "open", breaker.State())
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	breaker := NewCircuitBreaker("recovery", 50*time.Millisecond, 1)
	_ = breaker.Execute(func() error { return errors.New("fail") })

	time.Sleep(80 * time.Millisecond)

	assert.NoError(t, breaker.Execute(func() error { return nil }))
	assert.Equal(t, "closed", breaker.State())
}

func TestCircuitBreaker_ConcurrentUse(t *testing.T) {
	breaker := NewCircuitBreaker("concurrent", 30*time.Second, 100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = breaker.Execute(func() error {
				if id%2 == 0 {
					return nil
				}
				return errors.New("odd")
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, "closed", breaker.State())
}
