package wrap

import (
	"context"

	"microql/microqlerr"
)

// WithErrorHandling catches errors from the inner call (retry/timeout/
// service), attaches {queryName, serviceName, action, args} exactly once,
// runs the descriptor's onError handler (if any) with the error as its
// current context, and either rethrows or — under ignoreErrors — swallows
// the error into a nil result.
func WithErrorHandling(next Invoke) Invoke {
	return func(ctx context.Context, cc *CallContext) (interface{}, error) {
		result, err := next(ctx, cc)
		if err == nil {
			return result, nil
		}

		wrapped := microqlerr.New(cc.QueryName, cc.ServiceName, cc.Action, cc.ResolvedArgs, err)
		qerr := wrapped.(*microqlerr.Error)

		if cc.Settings.OnError != nil {
			handlerResult, handlerErr := cc.Settings.OnError.Call(ctx, qerr.AsMap())
			if handlerErr != nil {
				return nil, microqlerr.Newf(cc.QueryName, cc.ServiceName, cc.Action,
					"onError handler itself failed: %v", handlerErr)
			}
			if extra, ok := handlerResult.(map[string]interface{}); ok {
				qerr = qerr.WithExtra(extra)
			}
		}

		if cc.Settings.IgnoreErrors {
			return nil, nil
		}
		return nil, qerr
	}
}
