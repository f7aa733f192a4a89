package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: 5 * time.Millisecond}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := testPolicy(3).Retry(context.Background(), operation)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetry_EventualSuccess(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := testPolicy(5).Retry(context.Background(), operation)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	operation := func() error {
		attempts++
		return expectedErr
	}

	err := testPolicy(3).Retry(context.Background(), operation)
	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should attempt exactly MaxAttempts times")
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	err := testPolicy(10).Retry(ctx, operation)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled, "should return context.Canceled")
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestRetry_InvalidPolicy(t *testing.T) {
	err := RetryPolicy{MaxAttempts: 0}.Retry(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrInvalidRetryPolicy)

	err = RetryPolicy{MaxAttempts: 1, BaseDelay: -time.Second}.Retry(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrInvalidRetryPolicy)
}

func TestRetryPolicy_DelayCapped(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    25 * time.Millisecond,
	}

	// Exponential growth would reach 10ms, 20ms, 40ms, ... but the cap holds.
	assert.Equal(t, 10*time.Millisecond, p.delay(1))
	assert.Equal(t, 20*time.Millisecond, p.delay(2))
	assert.Equal(t, 25*time.Millisecond, p.delay(3))
	assert.Equal(t, 25*time.Millisecond, p.delay(8))
}

func TestRetryPolicy_Jitter(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		Jitter:      true,
	}

	for i := 0; i < 50; i++ {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}
