package app

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/fetcher"
	"github.com/ternarybob/atlas/internal/handlers"
	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/services/events"
	"github.com/ternarybob/atlas/internal/services/ingest"
	"github.com/ternarybob/atlas/internal/services/partner"
	"github.com/ternarybob/atlas/internal/services/scheduler"
	"github.com/ternarybob/atlas/internal/services/token"
	"github.com/ternarybob/atlas/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService
	TokenService   interfaces.TokenService
	IngestService  interfaces.IngestService
	Scheduler      *scheduler.Service

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	AuthHandler    *handlers.AuthHandler
	SyncHandler    *handlers.SyncHandler
	JobHandler     *handlers.JobHandler
	CountryHandler *handlers.CountryHandler
	WSHandler      *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	cipher, err := buildCipher(&cfg.OAuth)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	app.TokenService = token.NewService(token.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
	}, cipher, token.NewCache(), storageManager.SessionStorage(), logger)

	catalogFetcher := fetcher.New(logger,
		fetcher.WithConcurrency(cfg.Partner.MaxConcurrency),
		fetcher.WithPacing(cfg.Partner.RequestDelay, cfg.Partner.RandomDelay),
	)
	partnerClient := partner.NewClient(cfg.Partner.BaseURL, catalogFetcher, logger)

	tracker := ingest.NewTracker(storageManager.JobStorage(), app.EventService, logger)
	reconciler := ingest.NewReconciler(
		storageManager.ProjectStorage(),
		storageManager.AggregateStorage(),
		cfg.Ingest.ChunkSize,
		cfg.Ingest.HighConfidenceThreshold,
		logger,
	)
	app.IngestService = ingest.NewService(app.TokenService, partnerClient, tracker, reconciler, ingest.Config{
		PageSize:         cfg.Partner.PageSize,
		ChunkSize:        cfg.Ingest.ChunkSize,
		ProgressInterval: cfg.Ingest.ProgressInterval,
	}, logger)

	app.Scheduler = scheduler.NewService(app.IngestService, cfg.Ingest, logger)

	secureCookie := cfg.IsProduction() || strings.HasPrefix(cfg.OAuth.ReturnOrigin, "https://")
	app.AuthHandler = handlers.NewAuthHandler(app.TokenService, storageManager.SessionStorage(), cfg.OAuth.ReturnOrigin, secureCookie, logger)
	app.SyncHandler = handlers.NewSyncHandler(app.IngestService, app.AuthHandler, logger)
	app.JobHandler = handlers.NewJobHandler(storageManager.JobStorage(), logger)
	app.CountryHandler = handlers.NewCountryHandler(storageManager.AggregateStorage(), logger)
	app.APIHandler = handlers.NewAPIHandler(storageManager, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, logger)

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Start launches the background components
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Close releases all application resources
func (a *App) Close() error {
	a.Scheduler.Stop()
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}
	return nil
}

// buildCipher decodes the configured secrets into the token cipher. The
// encryption key must be valid base64 for an AES key length; the cookie
// secret is used as raw bytes.
func buildCipher(cfg *common.OAuthConfig) (*token.Cipher, error) {
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("oauth.encryption_key is required (base64-encoded 16/24/32 byte key)")
	}
	if cfg.CookieSecret == "" {
		return nil, fmt.Errorf("oauth.cookie_secret is required")
	}

	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("oauth.encryption_key is not valid base64: %w", err)
	}

	cipher, err := token.NewCipher(key, []byte(cfg.CookieSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	if cfg.ReturnOrigin != "" {
		if _, err := url.Parse(cfg.ReturnOrigin); err != nil {
			return nil, fmt.Errorf("oauth.return_origin is not a valid URL: %w", err)
		}
	}

	return cipher, nil
}
