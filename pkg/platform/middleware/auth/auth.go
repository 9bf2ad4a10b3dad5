package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "epp-gateway/pkg/domain-errors"
	"epp-gateway/pkg/platform/httputil"
	request "epp-gateway/pkg/platform/middleware/request"
	"epp-gateway/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Operator string
	Scopes   []string
	JTI      string // JWT ID for revocation tracking
}

// GetOperator retrieves the authenticated operator from the context
func GetOperator(ctx context.Context) string {
	return requestcontext.Operator(ctx)
}

func unauthorized(w http.ResponseWriter, desc string) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, desc))
}

// RequireAuth validates the bearer token and stores the operator and its
// scopes on the request context. revocationChecker may be nil.
func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			if revocationChecker != nil {
				if claims.JTI == "" {
					logger.WarnContext(ctx, "unauthorized access - missing token jti",
						"request_id", requestID,
					)
					unauthorized(w, "Invalid or expired token")
					return
				}

				revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", requestID,
					)
					unauthorized(w, "Token has been revoked")
					return
				}
			}

			ctx = requestcontext.WithOperator(ctx, claims.Operator)
			ctx = requestcontext.WithScopes(ctx, claims.Scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose token lacks scope. It must run after
// RequireAuth.
func RequireScope(scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.HasScope(ctx, scope) {
				logger.WarnContext(ctx, "forbidden - missing scope",
					"scope", scope,
					"operator", requestcontext.Operator(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token lacks scope "+scope))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Anonymous marks every request as coming from operator with all scopes. It
// replaces RequireAuth when authentication is disabled.
func Anonymous(operator string, scopes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithOperator(r.Context(), operator)
			ctx = requestcontext.WithScopes(ctx, scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
