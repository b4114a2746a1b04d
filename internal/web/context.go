package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/linkboard/internal/core"
	webmw "github.com/JonMunkholm/linkboard/internal/web/middleware"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, webmw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
