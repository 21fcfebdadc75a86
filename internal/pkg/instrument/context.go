package instrument

import "context"

// invalidCorrelationID is what GetCorrelationID yields for a context that never
// passed through the correlation middleware.
const invalidCorrelationID = "[invalid_chain_id]"

type correlationKey struct{}

// SetCorrelationID stores the request correlation ID in ctx.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// GetCorrelationID returns the correlation ID stored in ctx.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return invalidCorrelationID
	}
	cid, ok := ctx.Value(correlationKey{}).(string)
	if !ok || cid == "" {
		return invalidCorrelationID
	}
	return cid
}
