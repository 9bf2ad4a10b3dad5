package testutil

import (
	"context"
	"net/http"

	"epp-gateway/pkg/requestcontext"
)

// WithOperator marks a request as authenticated, as the auth middleware
// would.
func WithOperator(req *http.Request, operator string, scopes ...string) *http.Request {
	return req.WithContext(OperatorContext(req.Context(), operator, scopes...))
}

// OperatorContext is WithOperator for service-level tests.
func OperatorContext(ctx context.Context, operator string, scopes ...string) context.Context {
	ctx = requestcontext.WithOperator(ctx, operator)
	return requestcontext.WithScopes(ctx, scopes)
}
