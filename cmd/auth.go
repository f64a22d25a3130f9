package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/didagoals/internal/auth"
	"github.com/teemow/didagoals/internal/config"
)

func newAuthCmd() *cobra.Command {
	var (
		configFile  string
		redirectURL string
	)

	cmd := &cobra.Command{
		Use:   "auth [dida|google]",
		Short: "Authorize access to the task service",
		Long: `Run the OAuth authorization code flow for the task service.

The command prints an authorization URL. Open it, grant access and paste the
code shown by the provider. The token is cached in the user cache directory
and refreshed automatically by "didagoals serve".

The provider defaults to the configured backend. Client credentials are read
from the config file or from DIDAGOALS_DIDA_CLIENT_ID / DIDAGOALS_DIDA_CLIENT_SECRET
(or the GOOGLE equivalents).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			name := cfg.Backend
			if len(args) == 1 {
				name = args[0]
			}
			p, err := auth.ParseProvider(name)
			if err != nil {
				return err
			}
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), p, credentialsFor(cfg, p, redirectURL), auth.TokenPath(p))
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/didagoals/config.yaml or ./config.yaml)")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "OAuth redirect URL registered for the client (default: out-of-band code display)")

	return cmd
}

func credentialsFor(cfg *config.Config, p auth.Provider, redirectURL string) auth.Credentials {
	creds := auth.Credentials{RedirectURL: redirectURL}
	switch p {
	case auth.ProviderGoogle:
		creds.ClientID, creds.ClientSecret = cfg.Google.ClientID, cfg.Google.ClientSecret
	default:
		creds.ClientID, creds.ClientSecret = cfg.Dida.ClientID, cfg.Dida.ClientSecret
	}
	return creds
}

// runAuth prints the authorization URL, reads the code from in and caches
// the exchanged token at path.
func runAuth(ctx context.Context, in io.Reader, out io.Writer, p auth.Provider, creds auth.Credentials, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conf, err := auth.OAuthConfig(p, creds)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Open this URL in your browser and grant access:\n\n  %s\n\n", auth.AuthURL(conf, uuid.NewString()))
	fmt.Fprint(out, "Paste the authorization code: ")

	code, err := readCode(in)
	if err != nil {
		return err
	}

	if _, err := auth.Exchange(ctx, conf, code, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nToken saved to %s\n", path)
	return nil
}

// readCode reads one line and accepts either the bare code or the full
// redirect URL carrying a code parameter.
func readCode(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if i := strings.Index(code, "code="); i >= 0 {
		code = code[i+len("code="):]
		if j := strings.IndexByte(code, '&'); j >= 0 {
			code = code[:j]
		}
	}
	if code == "" {
		return "", fmt.Errorf("authorization code is required")
	}
	return code, nil
}
