package wrap

import (
	"context"

	"microql/reference"
)

// WithArgs is the outermost wrapper: it resolves $/@ references in the
// argument tree against (results, contextStack) before calling inward. An
// error resolving args (e.g. an out-of-range @ depth) propagates directly —
// it never passes through withErrorHandling, since withArgs sits outside it.
func WithArgs(next Invoke) Invoke {
	return func(ctx context.Context, cc *CallContext) (interface{}, error) {
		resolved := make(map[string]interface{}, len(cc.Args))
		for k, v := range cc.Args {
			rv, err := reference.Resolve(v, cc.Results, cc.Stack)
			if err != nil {
				return nil, err
			}
			resolved[k] = rv
		}
		cc.ResolvedArgs = resolved
		return next(ctx, cc)
	}
}
