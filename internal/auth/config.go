package auth

import (
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	tasks "google.golang.org/api/tasks/v1"
)

// Provider names a task host.
type Provider string

const (
	ProviderDida   Provider = "dida"
	ProviderGoogle Provider = "google"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderDida, ProviderGoogle:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q, must be one of: dida, google", s)
	}
}

// DidaEndpoint is the Dida365 OAuth2 endpoint.
var DidaEndpoint = oauth2.Endpoint{
	AuthURL:   "https://dida365.com/oauth/authorize",
	TokenURL:  "https://dida365.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DidaScopes grant read and write access to tasks and projects.
var DidaScopes = []string{"tasks:read", "tasks:write"}

// OOBRedirectURL makes the provider display the code instead of redirecting.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Credentials are the OAuth client credentials of a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OAuthConfig returns the oauth2 configuration of p.
func OAuthConfig(p Provider, creds Credentials) (*oauth2.Config, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%s client id and secret are required", p)
	}
	redirect := creds.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
	}
	switch p {
	case ProviderDida:
		conf.Endpoint = DidaEndpoint
		conf.Scopes = DidaScopes
	case ProviderGoogle:
		conf.Endpoint = google.Endpoint
		conf.Scopes = []string{tasks.TasksScope}
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
	return conf, nil
}

// AuthURL returns the URL the user opens to grant access. Offline access is
// requested so that a refresh token is issued.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}
