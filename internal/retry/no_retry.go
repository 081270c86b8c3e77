package retry

import (
	"context"
)

// NoRetryStrategy executes operations once, without retrying
type NoRetryStrategy struct{}

// NewNoRetryStrategy creates a new NoRetryStrategy
func NewNoRetryStrategy() *NoRetryStrategy {
	return &NoRetryStrategy{}
}

// Execute runs the operation once
func (s *NoRetryStrategy) Execute(ctx context.Context, name string, operation Operation) error {
	return operation(ctx)
}

// Name returns the strategy name
func (s *NoRetryStrategy) Name() string {
	return "NoRetry"
}
