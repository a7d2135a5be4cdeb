// Package retry runs operations with exponential backoff, retrying only the
// failures a Classifier marks as transient.
//
//	executor := retry.NewExecutor(retry.HTTPClassifier{}, retry.NewExponentialBackoff(2))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return download(ctx)
//	})
package retry
