package wrap

import (
	"context"

	"microql/service"
)

// BindService turns a plain service.Action into the innermost Invoke layer:
// it simply calls the action with the fully-resolved argument object.
func BindService(action service.Action) Invoke {
	return func(ctx context.Context, cc *CallContext) (interface{}, error) {
		return action(ctx, cc.ResolvedArgs)
	}
}
