// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// ErrInvalidRetryPolicy indicates a retry policy that cannot be executed.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// RetryPolicy bounds retries of slow provider calls.
// The same policy is shared by embedding and non-streaming generation calls.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts including the first (must be > 0)
	BaseDelay   time.Duration // Delay before the second attempt; doubles each retry
	MaxDelay    time.Duration // Upper bound on a single delay; 0 means uncapped
	Jitter      bool          // Randomize each delay in [delay/2, delay)
}

// Validate checks the policy is executable.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidRetryPolicy
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// delay computes the backoff before the given retry (attempt numbers start at 1).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
	}
	return d
}

// Retry runs an operation under the policy with exponential backoff.
// Returns the error from the last attempt if all attempts fail.
// Context cancellation is honored both between attempts and while sleeping.
func (p RetryPolicy) Retry(ctx context.Context, operation func() error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
