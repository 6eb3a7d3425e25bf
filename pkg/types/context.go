package types

import "context"

type decisionIDKey struct{}

// ContextWithDecisionID 把决策 ID 放入 ctx，供外部决策源关联日志和远程调用
func ContextWithDecisionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, decisionIDKey{}, id)
}

// DecisionIDFromContext 取出决策 ID，没有时返回空串
func DecisionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(decisionIDKey{}).(string)
	return id
}
