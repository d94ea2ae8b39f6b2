package numerator

import (
	"context"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc    func(ctx context.Context, scope Scope, period time.Time) (string, error)
	RecycleFunc func(ctx context.Context, scope Scope, number string) error
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, scope Scope, period time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, scope, period)
	}
	// Default: return predictable mock number
	return scope.Format(period, 1), nil
}

// Recycle implements Generator.
func (m *MockGenerator) Recycle(ctx context.Context, scope Scope, number string) error {
	if m.RecycleFunc != nil {
		return m.RecycleFunc(ctx, scope, number)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
