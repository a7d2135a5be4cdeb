package retry

import (
	"context"
	"time"
)

// Executor orchestrates attempts with backoff and error classification.
type Executor struct {
	classifier Classifier
	strategy   Strategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor.
func NewExecutor(classifier Classifier, strategy Strategy) *Executor {
	if classifier == nil {
		classifier = HTTPClassifier{}
	}
	if strategy == nil {
		strategy = NewExponentialBackoff(0)
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of the executor that calls fn before each wait.
func (e *Executor) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs operation until it succeeds, fails fatally, or the retry
// budget is spent. The last error is returned.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	for attempt := 0; err != nil && attempt < e.strategy.MaxRetries(); attempt++ {
		if !e.classifier.IsTransient(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = operation(ctx)
	}
	return err
}
