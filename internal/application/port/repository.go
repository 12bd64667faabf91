package port

import (
	"context"
	"errors"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a record whose id is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrVersionConflict is returned when a save lost an optimistic concurrency race
	ErrVersionConflict = errors.New("version conflict")
)

// Collection keys
const (
	CollectionInvoices      = "invoices"
	CollectionWorkflow      = "workflow_config"
	CollectionRoles         = "roles"
	CollectionVendors       = "vendors"
	CollectionGLRules       = "gl_rules"
	CollectionNotifications = "notifications"
)

// CollectionRecord is one stored collection and its version
type CollectionRecord struct {
	Key     string
	Value   []byte
	Version int64
}

// CollectionStore loads and saves whole collections by key.
// Save succeeds only while the stored version equals expectedVersion
// (0 for a key never saved) and returns the new version.
type CollectionStore interface {
	Load(ctx context.Context, key string) (*CollectionRecord, error)
	Save(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error)
}

// InvoiceFilter narrows an invoice listing. Empty fields match everything.
type InvoiceFilter struct {
	Status entity.InvoiceStatus
	Role   string
}

// InvoiceRepository defines persistence operations for Invoice
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// Update saves invoice if the stored copy still has invoice.Version,
	// then bumps invoice.Version.
	Update(ctx context.Context, invoice *entity.Invoice) error
}

// WorkflowConfigRepository defines persistence operations for the approval chain
type WorkflowConfigRepository interface {
	// Get returns the saved configuration, or the default one if none was saved
	Get(ctx context.Context) (*entity.WorkflowConfig, error)
	// Replace stores steps as the next configuration version
	Replace(ctx context.Context, steps []entity.WorkflowStepConfig) (*entity.WorkflowConfig, error)
}

// RoleRepository defines persistence operations for RoleDefinition
type RoleRepository interface {
	List(ctx context.Context) ([]entity.RoleDefinition, error)
}

// VendorRepository defines persistence operations for Vendor
type VendorRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Vendor, error)
	List(ctx context.Context) ([]*entity.Vendor, error)
	Upsert(ctx context.Context, vendor *entity.Vendor) error
}

// GLRuleRepository defines persistence operations for GLRule
type GLRuleRepository interface {
	List(ctx context.Context) ([]entity.GLRule, error)
}

// NotificationRepository defines persistence operations for Notification.
// Notifications are append-only.
type NotificationRepository interface {
	Append(ctx context.Context, notifications ...entity.Notification) error
	List(ctx context.Context, role string, limit int) ([]entity.Notification, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
