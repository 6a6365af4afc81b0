package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	operatorKey contextKey = iota
	sessionIDKey
)

// getOperator extracts the operator name from context.
func getOperator(ctx context.Context) string {
	v, _ := ctx.Value(operatorKey).(string)
	return v
}

// getSessionID extracts session ID from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// operatorOr prefers the operator asserted by the transport over an explicit
// tool argument.
func operatorOr(ctx context.Context, fallback string) string {
	if name := getOperator(ctx); name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

// operatorMiddleware reads the operator from the X-Operator header (HTTP) or
// _meta.operator (stdio).
func operatorMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var name string
			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				name = strings.TrimSpace(extra.Header.Get("X-Operator"))
			}
			if name == "" {
				name = metaString(req, "operator")
			}
			if name != "" {
				ctx = context.WithValue(ctx, operatorKey, name)
			}
			return next(ctx, method, req)
		}
	}
}

// sessionMiddleware extracts session ID from Mcp-Session-Id header (HTTP) or metadata (stdio).
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var sessionID string
			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				sessionID = extra.Header.Get("Mcp-Session-Id")
			}
			if sessionID == "" {
				sessionID = metaString(req, "session_id")
			}
			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}
			return next(ctx, method, req)
		}
	}
}

// metaString reads a string from request _meta. Some notifications carry nil
// params whose GetMeta panics, hence the recover.
func metaString(req sdkmcp.Request, key string) (value string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			value = ""
		}
	}()
	if meta := params.GetMeta(); meta != nil {
		value, _ = meta[key].(string)
	}
	return strings.TrimSpace(value)
}
