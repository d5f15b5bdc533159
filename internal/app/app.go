// Package app wires configuration, storage, clients, and services into one
// initialized application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/trademind/internal/clients/finnhub"
	"github.com/bobmcallan/trademind/internal/clients/gemini"
	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/services/advisor"
	"github.com/bobmcallan/trademind/internal/services/ledger"
	"github.com/bobmcallan/trademind/internal/services/marketdata"
	"github.com/bobmcallan/trademind/internal/storage"
	"github.com/bobmcallan/trademind/internal/storage/localdb"
	"github.com/bobmcallan/trademind/internal/storage/surreal"
)

// App holds all initialized services and storage.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.PortfolioStore
	Ledger      interfaces.LedgerService
	Market      interfaces.MarketDataService
	Advisor     interfaces.AdvisorService
	StartupTime time.Time

	refreshCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Config resolution: explicit path, TRADEMIND_CONFIG, binary dir, then
	// the development fallback.
	if configPath == "" {
		configPath = os.Getenv("TRADEMIND_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "trademind.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/trademind.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative local storage path to binary directory
	if config.Storage.Local.Path != "" && !filepath.IsAbs(config.Storage.Local.Path) {
		config.Storage.Local.Path = filepath.Join(binDir, config.Storage.Local.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := buildStore(logger, config)
	if err != nil {
		return nil, err
	}

	var feed interfaces.MarketFeedClient
	if config.Clients.Finnhub.APIKey != "" {
		feed = finnhub.NewClient(config.Clients.Finnhub.APIKey,
			finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL),
			finnhub.WithLogger(logger),
			finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit),
			finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Finnhub API key not configured, serving synthetic market data")
	}

	var advisorClient interfaces.AdvisorClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client initialization failed, position advice will be unavailable")
		} else {
			advisorClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured, position advice will be unavailable")
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Ledger:      ledger.NewService(store, logger),
		Market:      marketdata.NewService(feed, logger),
		Advisor:     advisor.NewService(advisorClient, logger),
		StartupTime: time.Now(),
	}

	return a, nil
}

// buildStore assembles the persistence tiers: SurrealDB primary when
// configured, BadgerHold fallback always.
func buildStore(logger *common.Logger, config *common.Config) (interfaces.PortfolioStore, error) {
	local, err := localdb.NewStore(logger, config.Storage.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	var primary interfaces.PortfolioStore
	if config.RemoteStorageEnabled() {
		remote, err := surreal.NewStore(logger, config.Storage.Remote)
		if err != nil {
			// Remote being down at boot is the same condition failover
			// handles at runtime. Start degraded instead of refusing to start.
			logger.Warn().Err(err).Str("address", config.Storage.Remote.Address).Msg("Remote storage unavailable, starting on local fallback")
		} else {
			primary = remote
		}
	}

	return storage.NewFailover(primary, local, config.Storage.Remote.GetTimeout(), logger), nil
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	if a.refreshCancel != nil {
		a.refreshCancel()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
