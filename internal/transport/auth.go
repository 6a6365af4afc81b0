package transport

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorHeader carries the identity of the person acting on a batch.
const OperatorHeader = "X-Operator"

type operatorKey struct{}

// OperatorFromContext returns the operator name from context, if present.
func OperatorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operatorKey{}).(string)
	return name, ok && name != ""
}

// WithOperator stores an operator name in ctx.
func WithOperator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operatorKey{}, name)
}

// OperatorMiddleware copies the X-Operator header into the request context.
// Identity is asserted by the caller; nothing here verifies it.
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := strings.TrimSpace(c.GetHeader(OperatorHeader)); name != "" {
			c.Request = c.Request.WithContext(WithOperator(c.Request.Context(), name))
		}
		c.Next()
	}
}

// operatorOr returns the operator from context, falling back to the name
// given in the request body.
func operatorOr(ctx context.Context, fallback string) string {
	if name, ok := OperatorFromContext(ctx); ok {
		return name
	}
	return strings.TrimSpace(fallback)
}
