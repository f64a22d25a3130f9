package cmd

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/teemow/didagoals/internal/auth"
	"github.com/teemow/didagoals/internal/config"
	"github.com/teemow/didagoals/internal/dida"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/tasks"
)

// newSource builds the host client for cfg.Backend. A configured Dida
// access token is used as-is; otherwise the token cached by "didagoals auth"
// is loaded and refreshed on demand.
func newSource(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger logging.Logger) (host.Source, error) {
	switch cfg.Backend {
	case config.BackendGoogle:
		ts, err := cachedTokenSource(ctx, auth.ProviderGoogle, auth.Credentials{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
		}, metrics, instrumentation.ServiceGoogleTasks)
		if err != nil {
			return nil, err
		}

		opts := []tasks.Option{tasks.WithLocation(cfg.Location())}
		if metrics != nil {
			opts = append(opts, tasks.WithMetrics(metrics))
		}
		client, err := tasks.NewClient(ctx, auth.HTTPClient(ctx, ts), opts...)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		opts := []dida.Option{dida.WithLocation(cfg.Location()), dida.WithLogger(logger)}
		if metrics != nil {
			opts = append(opts, dida.WithMetrics(metrics))
		}

		var ts oauth2.TokenSource
		if cfg.Dida.AccessToken != "" {
			ts = auth.StaticToken(cfg.Dida.AccessToken)
		} else {
			cs, err := cachedTokenSource(ctx, auth.ProviderDida, auth.Credentials{
				ClientID:     cfg.Dida.ClientID,
				ClientSecret: cfg.Dida.ClientSecret,
			}, metrics, instrumentation.ServiceDida)
			if err != nil {
				return nil, err
			}
			ts = cs
			opts = append(opts, dida.WithInvalidator(cs))
		}
		return dida.NewClient(auth.HTTPClient(ctx, ts), opts...), nil
	}
}

// cachedTokenSource loads the cached token of p and wraps it in a refreshing
// source that records refresh attempts under service.
func cachedTokenSource(
	ctx context.Context,
	p auth.Provider,
	creds auth.Credentials,
	metrics *instrumentation.Metrics,
	service string,
) (*auth.CachingSource, error) {
	conf, err := auth.OAuthConfig(p, creds)
	if err != nil {
		return nil, err
	}
	path := auth.TokenPath(p)
	tok, err := auth.LoadToken(path)
	if err != nil {
		return nil, fmt.Errorf("%w, run \"didagoals auth %s\" first", err, p)
	}

	onRefresh := func(err error) {
		if metrics == nil {
			return
		}
		result := instrumentation.RefreshResultSuccess
		if err != nil {
			result = instrumentation.RefreshResultFailure
		}
		metrics.RecordTokenRefresh(ctx, service, result)
	}
	return auth.NewCachingSource(ctx, conf, tok, path, onRefresh), nil
}
