package container

import (
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/application/service"
	"github.com/garyjia/freight-audit/internal/config"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
	"github.com/garyjia/freight-audit/internal/export"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/memory"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/repository"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/freight-audit/internal/infrastructure/storage"
	httpapi "github.com/garyjia/freight-audit/internal/interfaces/http"
	"github.com/garyjia/freight-audit/internal/lark"
	"github.com/garyjia/freight-audit/internal/notification"
	"github.com/garyjia/freight-audit/internal/worker"
	"github.com/garyjia/freight-audit/migrations"
	"github.com/garyjia/freight-audit/pkg/database"
	"github.com/garyjia/freight-audit/pkg/utils"
)

// StoreBundle holds the collection store and its transaction manager
type StoreBundle struct {
	DB        *database.DB // nil for the memory driver
	Store     port.CollectionStore
	TxManager port.TransactionManager
}

// ProvideStore opens the configured store and brings its schema up to date
func ProvideStore(cfg *config.DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg.Driver == config.DriverMemory {
		store := memory.NewStore()
		logger.Info("Using in-memory collection store")
		return &StoreBundle{Store: store, TxManager: store}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var schema fs.FS = migrations.Files
	if cfg.MigrationsDir != "" {
		schema = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.NewMigrator(db, logger).RunMigrations(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tx := sqlite.NewDB(db.DB, logger)
	return &StoreBundle{
		DB:        db,
		Store:     sqlite.NewCollectionStore(tx, logger),
		TxManager: tx,
	}, nil
}

// RepositoryBundle groups all repositories for convenient access
type RepositoryBundle struct {
	Invoice      port.InvoiceRepository
	Workflow     port.WorkflowConfigRepository
	Role         port.RoleRepository
	Vendor       port.VendorRepository
	GLRule       port.GLRuleRepository
	Notification port.NotificationRepository
}

// ProvideRepositories creates every repository over store
func ProvideRepositories(store port.CollectionStore, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Invoice:      repository.NewInvoiceRepository(store, logger),
		Workflow:     repository.NewWorkflowConfigRepository(store, logger),
		Role:         repository.NewRoleRepository(store, logger),
		Vendor:       repository.NewVendorRepository(store, logger),
		GLRule:       repository.NewGLRuleRepository(store, logger),
		Notification: repository.NewNotificationRepository(store, logger),
	}
}

// ProvideNotificationSender logs every notification and, when Lark
// credentials are configured, also posts it to the role's chat.
func ProvideNotificationSender(cfg *config.Config, logger *zap.Logger) port.NotificationSender {
	senders := notification.Fanout{notification.NewLogSender(logger)}
	if !cfg.LarkEnabled() {
		return senders
	}

	larkCfg := lark.Config{
		AppID:       cfg.Lark.AppID,
		AppSecret:   cfg.Lark.AppSecret,
		RoleChats:   cfg.Lark.RoleChats,
		DefaultChat: cfg.Lark.DefaultChat,
	}
	client := lark.NewClient(larkCfg, logger)
	messages := lark.NewMessageAPI(client, logger)

	logger.Info("Lark notification delivery enabled", zap.Int("role_chats", len(larkCfg.RoleChats)))
	return append(senders, lark.NewNotifier(messages, larkCfg, cfg.Server.PublicURL, logger))
}

// ProvideServices wires the application services
func ProvideServices(
	cfg *config.Config,
	repos *RepositoryBundle,
	txManager port.TransactionManager,
	sender port.NotificationSender,
	logger *zap.Logger,
) httpapi.Services {
	serviceLogger := utils.NewServiceLogger(logger)
	engine := workflow.NewEngine()

	notifier := service.NewNotificationService(repos.Invoice, repos.Notification, sender, txManager, engine, serviceLogger)
	taxes := service.NewTaxService(repos.Invoice, repos.Vendor, cfg.Tax.PayerStateCode, serviceLogger)
	allocations := service.NewAllocationService(repos.Invoice, repos.GLRule, serviceLogger)
	archive := storage.NewArchive(cfg.Export.OutputDir, logger)

	return httpapi.Services{
		Workflow: service.NewWorkflowService(
			repos.Invoice,
			repos.Workflow,
			repos.Role,
			repos.Notification,
			notifier,
			txManager,
			engine,
			serviceLogger,
		),
		Notifications: notifier,
		Tax:           taxes,
		Allocation:    allocations,
		Export:        service.NewExportService(repos.Invoice, taxes, allocations, export.NewGLRegisterWriter(logger), archive, serviceLogger),
		Vendors:       service.NewVendorService(repos.Vendor, serviceLogger),
	}
}

// ProvideWorkers registers the background workers
func ProvideWorkers(cfg *config.WorkflowConfig, reminder worker.Reminder, logger *zap.Logger) *worker.Manager {
	manager := worker.NewManager(logger)
	manager.Register(worker.NewReminderWorker(reminder, worker.ReminderConfig{
		Schedule:   cfg.ReminderSchedule,
		StaleAfter: cfg.StaleAfter,
	}, logger))
	return manager
}
