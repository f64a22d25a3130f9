package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every request to the host.
const DefaultTimeout = 30 * time.Second

// HTTPClient returns an HTTP/1.1 client that authorizes requests with ts.
func HTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	client.Timeout = DefaultTimeout
	return client
}
