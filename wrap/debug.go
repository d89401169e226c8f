package wrap

import (
	"context"
	"time"

	"microql/internal/inspect"
	"microql/logger"
)

// WithDebug prints "called with" / "completed in Nms returning" lines in a
// per-service color when cc.Settings.Debug is set.
func WithDebug(log logger.Logger) Wrapper {
	return func(next Invoke) Invoke {
		return func(ctx context.Context, cc *CallContext) (interface{}, error) {
			if !cc.Settings.Debug || log == nil {
				return next(ctx, cc)
			}
			svcLog := log.ForService(cc.ServiceName)
			called := inspect.CalledWith(cc.Settings.Inspect, cc.RunID, cc.QueryName, cc.ServiceName, cc.Action, cc.ResolvedArgs)
			svcLog.Debug(called)

			start := time.Now()
			result, err := next(ctx, cc)
			ms := time.Since(start).Milliseconds()

			if err != nil {
				svcLog.Debug(errorLine(cc, ms, err))
				return result, err
			}
			completed := inspect.Completed(cc.Settings.Inspect, cc.RunID, cc.QueryName, cc.ServiceName, cc.Action, ms, result)
			svcLog.Debug(completed)
			return result, err
		}
	}
}

func errorLine(cc *CallContext, ms int64, err error) string {
	return "(" + cc.RunID + ") [" + cc.QueryName + "] " + cc.ServiceName + ":" + cc.Action + " failed after " + time.Duration(ms*int64(time.Millisecond)).String() + ": " + err.Error()
}
