// Package container wires the freight audit service together and owns the
// lifecycle of its long-lived components.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/config"
	httpapi "github.com/garyjia/freight-audit/internal/interfaces/http"
	"github.com/garyjia/freight-audit/internal/worker"
	"github.com/garyjia/freight-audit/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and stop in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	store        *StoreBundle
	repositories *RepositoryBundle
	services     httpapi.Services
	server       *httpapi.Server
	workers      *worker.Manager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Store and repositories
// 2. Notification delivery and application services
// 3. HTTP server
// 4. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	store, err := ProvideStore(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.store = store
	c.repositories = ProvideRepositories(store.Store, c.logger)
	c.logger.Info("Store initialized", zap.String("driver", c.config.Database.Driver))

	sender := ProvideNotificationSender(c.config, c.logger)
	c.services = ProvideServices(c.config, c.repositories, store.TxManager, sender, c.logger)
	c.logger.Info("Application services initialized")

	c.server = httpapi.NewServer(httpapi.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
	}, c.services, utils.NewServiceLogger(c.logger))

	c.workers = ProvideWorkers(&c.config.Workflow, c.services.Notifications, c.logger)
	if err := c.workers.StartAll(ctx); err != nil {
		c.closeStore()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.Count()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close stops workers and releases the store
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	if c.workers != nil {
		c.workers.StopAll()
	}
	err := c.closeStore()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		return err
	}
	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeStore() error {
	if c.store == nil || c.store.DB == nil {
		return nil
	}
	if err := c.store.DB.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Server returns the HTTP server, or nil before Start
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Services returns the application services
func (c *Container) Services() httpapi.Services {
	return c.services
}

// Health returns health status of all components
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    c.ready.Load(),
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.store == nil:
		status.Components["store"] = ComponentHealth{Message: "not initialized"}
		status.Overall = false
	case c.store.DB != nil:
		if err := c.store.DB.Health(ctx); err != nil {
			status.Components["store"] = ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true, Message: config.DriverSQLite}
		}
	default:
		status.Components["store"] = ComponentHealth{Healthy: true, Message: config.DriverMemory}
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: c.ready.Load(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		}
	} else {
		status.Components["workers"] = ComponentHealth{Message: "not initialized"}
		status.Overall = false
	}

	return status
}
