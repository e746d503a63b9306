// Deck Core - USB button-panel controller
//
// This is the main entry point for the deck-core daemon. It drives a
// Stream Deck class button panel: pages of buttons are stored in SQLite,
// rendered to key-sized bitmaps, synchronized to the device, and key
// presses dispatch plugin actions (system control, network tools, Home
// Assistant calls).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/deckworks/deck-core/migrations"

	"github.com/deckworks/deck-core/internal/bus"
	"github.com/deckworks/deck-core/internal/deck"
	"github.com/deckworks/deck-core/internal/devsync"
	"github.com/deckworks/deck-core/internal/dispatch"
	"github.com/deckworks/deck-core/internal/hid"
	"github.com/deckworks/deck-core/internal/infrastructure/config"
	"github.com/deckworks/deck-core/internal/infrastructure/database"
	"github.com/deckworks/deck-core/internal/infrastructure/influxdb"
	"github.com/deckworks/deck-core/internal/infrastructure/logging"
	"github.com/deckworks/deck-core/internal/infrastructure/mqtt"
	"github.com/deckworks/deck-core/internal/plugin"
	"github.com/deckworks/deck-core/internal/plugin/builtin"
	"github.com/deckworks/deck-core/internal/render"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Deck Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Internal event bus carries mutation events between the store,
	// synchronizer, MQTT notifier and history recorder.
	eventBus := bus.New(log)
	defer eventBus.Close()

	// Plugin registry with the built-in action set
	registry := plugin.NewRegistry()
	registry.SetLogger(log)
	if regErr := builtin.RegisterAll(registry); regErr != nil {
		return fmt.Errorf("registering builtin plugins: %w", regErr)
	}
	log.Info("plugin registry initialised", "plugins", len(registry.List()))

	// Config store backed by SQLite
	repo := deck.NewSQLiteRepository(db.DB)
	store := deck.NewStore(repo, deck.StoreOptions{
		KeyCount:  cfg.Device.KeyCount,
		Bus:       eventBus,
		Validator: registry,
		Logger:    log,
	})
	if loadErr := store.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading deck state: %w", loadErr)
	}
	log.Info("deck state loaded",
		"pages", len(store.ListPages()),
		"active_page", store.ActivePage().ID,
	)

	// Render pipeline: button face renderer plus an LRU bitmap cache
	renderer, err := render.NewRenderer(render.RendererOptions{
		KeyPixels: cfg.Device.KeyPixels,
		Icons:     render.NewDirIcons(cfg.Render.IconDir),
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("initialising renderer: %w", err)
	}
	cache := render.NewCache(cfg.Render.CacheEntries)

	// Device handle. The USB transport lives behind devsync.Handle; this
	// build ships the in-memory emulator.
	if !cfg.Device.Emulated {
		return fmt.Errorf("no hardware transport built in: set device.emulated to true")
	}
	opener := hid.NewEmulatorOpener(devsync.DeviceInfo{
		Serial:    cfg.Deck.ID,
		KeyCount:  cfg.Device.KeyCount,
		Columns:   cfg.Device.Columns,
		Rows:      cfg.Device.Rows,
		KeyPixels: cfg.Device.KeyPixels,
	})
	log.Info("using emulated device",
		"keys", cfg.Device.KeyCount,
		"layout", fmt.Sprintf("%dx%d", cfg.Device.Columns, cfg.Device.Rows),
	)

	// Device synchronizer and action dispatcher
	synchronizer := devsync.NewSynchronizer(store, renderer, cache, opener, eventBus, devsync.SynchronizerOptions{
		HeartbeatInterval: cfg.GetHeartbeatInterval(),
		PollTimeout:       cfg.GetPollTimeout(),
		ReconnectInitial:  time.Duration(cfg.Sync.Reconnect.InitialDelay) * time.Second,
		ReconnectMax:      time.Duration(cfg.Sync.Reconnect.MaxDelay) * time.Second,
		PressBuffer:       cfg.Dispatch.QueueSize,
		Logger:            log,
	})
	dispatcher := dispatch.NewDispatcher(store, registry, eventBus, dispatch.DispatcherOptions{
		Timeout: cfg.GetDispatchTimeout(),
		Logger:  log,
	})

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// Set up MQTT logging callbacks
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Forward deck state changes to MQTT
		notifier := mqtt.NewNotifier(mqttClient, eventBus, log)
		go func() {
			if notifyErr := notifier.Run(ctx); notifyErr != nil && ctx.Err() == nil {
				log.Error("MQTT notifier stopped", "error", notifyErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		// Record press and connectivity history
		recorder := influxdb.NewRecorder(influxClient, eventBus, log)
		go func() {
			if recErr := recorder.Run(ctx); recErr != nil && ctx.Err() == nil {
				log.Error("history recorder stopped", "error", recErr)
			}
		}()
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the device loop and the dispatcher. Both run until ctx is
	// cancelled; the dispatcher drains the synchronizer's press channel.
	go func() {
		if syncErr := synchronizer.Run(ctx); syncErr != nil && ctx.Err() == nil {
			log.Error("device synchronizer stopped", "error", syncErr)
		}
	}()
	go func() {
		if dispErr := dispatcher.Run(ctx, synchronizer.Presses()); dispErr != nil && ctx.Err() == nil {
			log.Error("dispatcher stopped", "error", dispErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT (if enabled)
	// 3. Event bus
	// 4. Database

	log.Info("Deck Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DECKD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DECKD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// The device itself is not health-checked here: the synchronizer
	// reconnects with backoff, so a missing panel is a normal state.

	return nil
}
