package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/chapgen/cli/internal/server"
	"github.com/chapgen/cli/internal/shared"
)

// oauthScopes are requested at sign-in: identity for the userinfo endpoint
// and YouTube access for reading uploads and writing descriptions.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/youtube",
}

// AuthLogin runs the browser-based Google sign-in flow.
//
// A local callback server receives the authorization code, exchanges it for a
// token, and the session store validates the token by fetching the profile.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Google
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: google client credentials not configured", shared.ErrMissingConfig)
	}

	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, creds.RedirectURI)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       oauthScopes,
		Endpoint:     google.Endpoint,
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(oauthConfig, state)

	mux := server.NewBasicRouter()
	mux.Handler(handler)

	srv := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Errorf("callback server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	r.writePlain("Opening your browser to sign in with Google...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser: %v", err)
		r.writePlain("Visit this URL to continue:\n%s\n", authURL)
	}

	timeout := time.Duration(cmd.Int("timeout")) * time.Second
	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-time.After(timeout):
		return fmt.Errorf("%w: timed out waiting for the browser callback", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.session.SetToken(ctx, result.Token.AccessToken); err != nil {
		return err
	}

	sess := app.session.Current()
	r.writePlain("✓ Signed in as %s (%s)\n", sess.Profile.Name, sess.Profile.Email)
	return nil
}

// AuthStatus shows the signed-in identity, restoring it from the database.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	sess := app.session.Current()
	if !sess.SignedIn() {
		r.writePlain("✗ Not signed in\n")
		return nil
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("Name:  %s\n", sess.Profile.Name)
	r.writePlain("Email: %s\n", sess.Profile.Email)
	return nil
}

// AuthLogout clears the session and the persisted token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	app.session.SignOut()
	return r.writePlain("✓ Signed out\n")
}
