package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/fileupload/internal/provider"
)

// client identifies who opened a session, for the upload catalog.
type client struct {
	ip        string
	userAgent string
}

// clientFrom reads the caller from r. RemoteAddr has already been resolved
// by TrustedRealIP.
func clientFrom(r *http.Request) client {
	return client{ip: r.RemoteAddr, userAgent: r.UserAgent()}
}

func (c client) context(ctx context.Context) context.Context {
	return provider.ContextWithClient(ctx, c.ip, c.userAgent)
}
