package ctxkeys

import (
	"context"

	"github.com/templui/sheetlens/internal/config"
	"github.com/templui/sheetlens/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	IdentityKey   contextKey = "identity"
	AuthSourceKey contextKey = "auth_source"
	RequestIDKey  contextKey = "request_id"
	ConfigKey     contextKey = "config"
	CSRFTokenKey  contextKey = "csrf_token"
)

// Where the identity's token was read from.
const (
	AuthSourceBearer = "bearer"
	AuthSourceCookie = "cookie"
)

func Identity(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(IdentityKey).(*model.Identity)
	return id
}

func WithIdentity(ctx context.Context, id *model.Identity, source string) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, id)
	return context.WithValue(ctx, AuthSourceKey, source)
}

func AuthSource(ctx context.Context) string {
	source, _ := ctx.Value(AuthSourceKey).(string)
	return source
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
