package wrap

import "context"

// WithRetry retries the inner call up to cc.Settings.Retry additional
// attempts on error. It only counts transient failures (any throw from the
// inner call); a context cancellation is returned immediately without
// consuming a retry attempt.
func WithRetry(next Invoke) Invoke {
	return func(ctx context.Context, cc *CallContext) (interface{}, error) {
		var result interface{}
		var err error
		attempts := cc.Settings.Retry + 1
		for i := 0; i < attempts; i++ {
			result, err = next(ctx, cc)
			if err == nil {
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
		}
		return result, err
	}
}
