package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/Kenpir/library-recommendation-system/internal/auth"
	"github.com/Kenpir/library-recommendation-system/internal/repositories"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := "config.toml"
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	sessionPath, err := auth.DefaultSessionPath()
	if err != nil {
		logger.Fatalf("failed to resolve session path: %v", err)
	}
	sessions := auth.NewManager(sessionPath, logger)
	if err := sessions.Load(); err != nil {
		logger.Warnf("failed to load session, continuing signed out: %v", err)
	}

	var catalog services.Service
	if config.Credentials.Bookhive.ClientID != "" && config.Credentials.Bookhive.ClientSecret != "" {
		if svc, err := services.NewBookhiveService(config.Credentials.Bookhive.Map()); err == nil {
			svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
				if err := sessions.UpdateToken(token); err != nil {
					logger.Warnf("failed to persist refreshed token: %v", err)
				}
			})
			if token, err := sessions.Token(); err == nil {
				if err := svc.OAuthenticate(context.Background(), token); err != nil {
					logger.Warnf("failed to restore session token: %v", err)
				}
			}
			catalog = svc
		}
	}

	metadata := services.NewOpenLibraryService(
		config.Credentials.OpenLibrary.BaseURL,
		config.Credentials.OpenLibrary.UserAgent,
	)

	apiService := services.NewAPIService("", nil)
	if token, err := sessions.Token(); err == nil {
		apiService.SetAuthToken(token.AccessToken)
	}

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Catalog:    catalog,
		Metadata:   metadata,
		API:        apiService,
		Sessions:   sessions,
		Logger:     logger,
	}

	// The local cache is optional until setup has run.
	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

			var userID string
			if session, ok := sessions.Current(); ok {
				userID = session.User.ID
			}

			bookRepo := repositories.NewBookRepository(db)
			shelfRepo := repositories.NewShelfRepository(db)
			linkRepo := repositories.NewShelfBookRepository(db)

			serviceName := "Bookhive"
			if catalog != nil {
				serviceName = catalog.Name()
			}

			opts.DB = db
			opts.Books = repositories.NewBookCacheAdapter(bookRepo)
			opts.Cache = repositories.NewShelfCacheAdapter(shelfRepo, bookRepo, linkRepo, serviceName, userID)
		} else {
			logger.Warnf("failed to open local cache: %v", err)
		}
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "shelfctl",
		Usage:    "Sync reading shelves between Bookhive and your local library",
		Version:  "0.9.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
