package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/Kenpir/library-recommendation-system/internal/auth"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/server"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// AuthLogin performs the OAuth2 authorization flow against Bookhive and
// stores the resulting session.
//
// Starts a local HTTP server, opens the browser for consent, exchanges the
// authorization code for tokens, and signs the identity in.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Bookhive.ClientID == "" || config.Credentials.Bookhive.ClientSecret == "" {
		return fmt.Errorf("%w: Bookhive client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	catalog, err := services.NewBookhiveService(config.Credentials.Bookhive.Map())
	if err != nil {
		return fmt.Errorf("failed to create Bookhive service: %w", err)
	}

	token, err := r.doOAuth(config, catalog, "sign-in")
	if err != nil {
		return err
	}

	if err := catalog.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new token: %w", err)
	}

	profile, err := catalog.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch profile: %v", shared.ErrAPIRequest, err)
	}

	identity := auth.Identity{
		ID:    profile.ID,
		Email: profile.Email,
		Name:  profile.DisplayName,
	}
	if err := r.sessions.SignIn(identity, token); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	// Keep this process usable without a restart.
	catalog.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.sessions.UpdateToken(t); err != nil {
			r.logger.Warnf("failed to persist refreshed token: %v", err)
		}
	})
	r.catalog = catalog
	if r.api != nil {
		r.api.SetAuthToken(token.AccessToken)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Signed in as %s", profile.Email))
	r.writePlain("  Shelves: %d\n", profile.ShelfCount)
	r.writePlain("  Books: %d\n\n", profile.BookCount)
	r.writePlain("You can now use: shelfctl shelves list\n")

	return nil
}

// AuthLogout signs out after confirmation and removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	session, ok := r.sessions.Current()
	if !ok {
		r.notifier.NotifyWarning("Already signed out")
		return nil
	}

	if !cmd.Bool("yes") {
		confirmed, err := r.confirmer.Confirm(ctx, notify.Options{
			Title:       fmt.Sprintf("Sign out of Bookhive (%s)?", session.User.Email),
			Description: "The stored session will be removed; shelves stay in the local cache.",
		})
		if err != nil {
			return fmt.Errorf("failed to confirm: %w", err)
		}
		if !confirmed {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	if err := r.sessions.SignOut(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	r.notifier.NotifySuccess("Signed out")
	return nil
}

// AuthStatus reports the stored session and checks catalog reachability.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil || !r.sessions.Authenticated() {
		r.writePlain("Signed out. Run 'shelfctl auth login' to sign in.\n")
		return nil
	}

	session, _ := r.sessions.Current()
	r.writePlain("✓ Signed in as %s", session.User.Email)
	if session.User.Name != "" {
		r.writePlain(" (%s)", session.User.Name)
	}
	r.writePlain("\n")
	r.writePlain("  Session since: %s\n", session.CreatedAt.Format(time.RFC822))

	if session.Token != nil && !session.Token.Expiry.IsZero() {
		if session.Token.Expiry.Before(time.Now()) {
			r.writePlain("  Token: expired, will refresh on next use\n")
		} else {
			r.writePlain("  Token: valid until %s\n", session.Token.Expiry.Format(time.RFC822))
		}
	}

	if r.api == nil {
		return nil
	}

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: catalog unreachable: %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		r.writePlain("✓ Catalog is reachable\n")
	} else {
		r.writePlain("✗ Catalog returned status %d\n", resp.StatusCode)
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Bookhive %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
