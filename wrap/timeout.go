package wrap

import (
	"context"

	"microql/microqlerr"
)

// WithTimeout races the inner call against a timer. cc.Settings.Timeout <= 0
// means no timeout applies for this call (either none was configured, or the
// service opted out via _noTimeout and no explicit per-call timeout
// overrode that opt-out — both resolved ahead of time by the compiler).
func WithTimeout(next Invoke) Invoke {
	return func(ctx context.Context, cc *CallContext) (interface{}, error) {
		if cc.Settings.Timeout <= 0 {
			return next(ctx, cc)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, cc.Settings.Timeout)
		defer cancel()

		type outcome struct {
			result interface{}
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := next(timeoutCtx, cc)
			done <- outcome{result, err}
		}()

		select {
		case o := <-done:
			return o.result, o.err
		case <-timeoutCtx.Done():
			return nil, microqlerr.Newf(cc.QueryName, cc.ServiceName, cc.Action,
				"Timed out after %dms", cc.Settings.Timeout.Milliseconds())
		}
	}
}
