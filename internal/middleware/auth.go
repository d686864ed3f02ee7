package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/auth"
)

type contextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for the authenticated user's email.
	EmailKey contextKey = "email"
	// NameKey is the context key for the authenticated user's display name.
	NameKey contextKey = "name"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// GetName extracts the user display name from the context.
func GetName(ctx context.Context) string {
	name, _ := ctx.Value(NameKey).(string)
	return name
}

// WithClaims returns ctx carrying the identity in claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	return context.WithValue(ctx, NameKey, claims.Name)
}

func bearerToken(h http.Header) (string, error) {
	authHeader := h.Get("Authorization")
	if authHeader == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// authInterceptor validates bearer tokens on unary and streaming calls.
type authInterceptor struct {
	jwtManager *auth.JWTManager
	optional   bool
}

// RequireAuth returns an interceptor that rejects calls without a valid
// JWT and adds the caller's identity to the context.
func RequireAuth(jwtManager *auth.JWTManager) connect.Interceptor {
	return &authInterceptor{jwtManager: jwtManager}
}

// OptionalAuth returns an interceptor that adds the caller's identity when a
// valid token is present and lets anonymous calls through.
func OptionalAuth(jwtManager *auth.JWTManager) connect.Interceptor {
	return &authInterceptor{jwtManager: jwtManager, optional: true}
}

func (i *authInterceptor) authenticate(ctx context.Context, h http.Header) (context.Context, error) {
	token, err := bearerToken(h)
	if err == nil {
		var claims *auth.Claims
		claims, err = i.jwtManager.Validate(token)
		if err == nil {
			return WithClaims(ctx, claims), nil
		}
	}
	if i.optional {
		return ctx, nil
	}
	return nil, connect.NewError(connect.CodeUnauthenticated, err)
}

func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		ctx, err := i.authenticate(ctx, req.Header())
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}
