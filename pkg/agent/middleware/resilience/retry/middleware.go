package retry

import (
	"context"
	"fmt"
	"time"

	"salesagent/pkg/agent/llm"
	"salesagent/pkg/agent/llmerrors"
)

// Middleware retries failed Complete calls according to policy.
func Middleware(policy *Policy) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var lastErr error
				attempts := 0

				for attempt := 1; attempt <= policy.Config.MaxAttempts; attempt++ {
					if delay := policy.CalculateDelay(attempt); delay > 0 {
						select {
						case <-ctx.Done():
							return llm.CompletionResponse{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
						case <-time.After(delay):
						}
					}

					attempts = attempt
					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}
					lastErr = err

					if !policy.ShouldRetry(err) || ctx.Err() != nil {
						return llm.CompletionResponse{}, lastErr
					}
				}

				if attempts > 1 {
					return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(lastErr, attempts)
				}
				return llm.CompletionResponse{}, lastErr
			},
			next.GetModelName,
		)
	}
}
