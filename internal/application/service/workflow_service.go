package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
	"github.com/garyjia/freight-audit/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// defaultDecisionRetries bounds re-decisions after a lost save race
const defaultDecisionRetries = 3

// RegisterInvoiceRequest carries an invoice handed over by ingestion
type RegisterInvoiceRequest struct {
	InvoiceNumber string            `json:"invoice_number"`
	VendorID      string            `json:"vendor_id"`
	CarrierName   string            `json:"carrier_name"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Variance      decimal.Decimal   `json:"variance"`
	LineItems     []entity.LineItem `json:"line_items"`
	TransportMode string            `json:"transport_mode"`
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
}

// WorkflowService runs invoices through the approval chain
type WorkflowService interface {
	RegisterInvoice(ctx context.Context, req RegisterInvoiceRequest) (*entity.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	PreviewRoute(ctx context.Context, id string) ([]workflow.StepPreview, error)
	Decide(ctx context.Context, invoiceID string, req workflow.DecisionRequest) (*entity.Invoice, error)
	GetConfig(ctx context.Context) (*entity.WorkflowConfig, error)
	ReplaceConfig(ctx context.Context, actor entity.Actor, steps []entity.WorkflowStepConfig) (*entity.WorkflowConfig, error)
	ListRoles(ctx context.Context) ([]entity.RoleDefinition, error)
}

type workflowServiceImpl struct {
	invoiceRepo      port.InvoiceRepository
	configRepo       port.WorkflowConfigRepository
	roleRepo         port.RoleRepository
	notificationRepo port.NotificationRepository
	notifier         NotificationService
	txManager        port.TransactionManager
	engine           *workflow.Engine
	locks            *keyedMutex
	retries          int
	logger           Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	invoiceRepo port.InvoiceRepository,
	configRepo port.WorkflowConfigRepository,
	roleRepo port.RoleRepository,
	notificationRepo port.NotificationRepository,
	notifier NotificationService,
	txManager port.TransactionManager,
	engine *workflow.Engine,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		invoiceRepo:      invoiceRepo,
		configRepo:       configRepo,
		roleRepo:         roleRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		txManager:        txManager,
		engine:           engine,
		locks:            newKeyedMutex(),
		retries:          defaultDecisionRetries,
		logger:           logger,
	}
}

// RegisterInvoice stores a new invoice and routes it to the first step
func (s *workflowServiceImpl) RegisterInvoice(ctx context.Context, req RegisterInvoiceRequest) (*entity.Invoice, error) {
	number := strings.TrimSpace(utils.SanitizeString(req.InvoiceNumber))
	if number == "" {
		return nil, fmt.Errorf("%w: invoice number is required", workflow.ErrValidation)
	}
	if err := utils.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	invoice := &entity.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		VendorID:      req.VendorID,
		CarrierName:   utils.SanitizeString(req.CarrierName),
		Status:        entity.InvoiceStatusPending,
		Amount:        req.Amount,
		Currency:      currency,
		Variance:      req.Variance,
		LineItems:     req.LineItems,
		TransportMode: strings.ToUpper(strings.TrimSpace(req.TransportMode)),
		Origin:        req.Origin,
		Destination:   req.Destination,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var routed *workflow.Outcome
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		cfg, err := s.configRepo.Get(txCtx)
		if err != nil {
			return fmt.Errorf("load workflow configuration: %w", err)
		}

		routed, err = s.engine.Route(invoice, cfg)
		if err != nil {
			return err
		}

		if err := s.invoiceRepo.Create(txCtx, routed.Invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.notificationRepo.Append(txCtx, routed.Notifications...); err != nil {
			return fmt.Errorf("append notifications: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to register invoice", "error", err, "invoice_number", number)
		return nil, err
	}

	s.notifier.Dispatch(ctx, routed.Notifications)

	s.logger.Info("Invoice registered",
		"invoice_id", routed.Invoice.ID,
		"invoice_number", number,
		"step", routed.Invoice.CurrentStep(),
		"workflow_version", routed.Invoice.WorkflowVersion)
	return routed.Invoice, nil
}

// GetInvoice retrieves an invoice by ID
func (s *workflowServiceImpl) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get invoice", "error", err, "invoice_id", id)
		return nil, err
	}
	return invoice, nil
}

// ListInvoices lists invoices matching filter
func (s *workflowServiceImpl) ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err)
		return nil, err
	}
	return invoices, nil
}

// PreviewRoute shows every configured step and whether its condition holds
func (s *workflowServiceImpl) PreviewRoute(ctx context.Context, id string) ([]workflow.StepPreview, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return workflow.Preview(invoice, cfg), nil
}

// Decide applies one approver decision. The read-modify-write is serialized
// per invoice and retried when another writer saved first.
func (s *workflowServiceImpl) Decide(ctx context.Context, invoiceID string, req workflow.DecisionRequest) (*entity.Invoice, error) {
	unlock := s.locks.Lock(invoiceID)
	defer unlock()

	var outcome *workflow.Outcome
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		outcome, err = s.decideOnce(ctx, invoiceID, req)
		if !errors.Is(err, port.ErrVersionConflict) {
			break
		}
		s.logger.Info("Decision lost save race, retrying",
			"invoice_id", invoiceID,
			"step_id", req.StepID,
			"attempt", attempt)
	}
	if err != nil {
		s.logger.Error("Decision failed",
			"error", err,
			"kind", workflow.Kind(err),
			"invoice_id", invoiceID,
			"step_id", req.StepID,
			"actor", req.Actor.Name)
		return nil, err
	}

	s.notifier.Dispatch(ctx, outcome.Notifications)

	s.logger.Info("Decision recorded",
		"invoice_id", invoiceID,
		"step_id", req.StepID,
		"decision", req.Decision,
		"actor", req.Actor.Name,
		"status", outcome.Invoice.Status,
		"noop", outcome.Noop)
	return outcome.Invoice, nil
}

func (s *workflowServiceImpl) decideOnce(ctx context.Context, invoiceID string, req workflow.DecisionRequest) (*workflow.Outcome, error) {
	var outcome *workflow.Outcome
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(txCtx, invoiceID)
		if err != nil {
			return err
		}
		cfg, err := s.configRepo.Get(txCtx)
		if err != nil {
			return fmt.Errorf("load workflow configuration: %w", err)
		}
		roles, err := s.roleRepo.List(txCtx)
		if err != nil {
			return fmt.Errorf("load roles: %w", err)
		}

		outcome, err = s.engine.Decide(invoice, cfg, roles, req)
		if err != nil {
			return err
		}
		if outcome.Noop {
			return nil
		}

		if err := s.invoiceRepo.Update(txCtx, outcome.Invoice); err != nil {
			return err
		}
		return s.notificationRepo.Append(txCtx, outcome.Notifications...)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// GetConfig returns the current workflow configuration
func (s *workflowServiceImpl) GetConfig(ctx context.Context) (*entity.WorkflowConfig, error) {
	return s.configRepo.Get(ctx)
}

// ReplaceConfig saves a new configuration version. Only roles with the
// system administration permission may change the chain.
func (s *workflowServiceImpl) ReplaceConfig(ctx context.Context, actor entity.Actor, steps []entity.WorkflowStepConfig) (*entity.WorkflowConfig, error) {
	steps = append([]entity.WorkflowStepConfig(nil), steps...)
	for i := range steps {
		if steps[i].ConditionType == "" {
			steps[i].ConditionType = entity.ConditionAlways
		}
	}

	var cfg *entity.WorkflowConfig
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		roles, err := s.roleRepo.List(txCtx)
		if err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
		if !isAdmin(roles, actor.RoleID) {
			return fmt.Errorf("%w: role %q may not change the workflow configuration", workflow.ErrAuthorization, actor.RoleID)
		}
		if err := workflow.ValidateConfig(&entity.WorkflowConfig{Steps: steps}, roles); err != nil {
			return err
		}

		cfg, err = s.configRepo.Replace(txCtx, steps)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to replace workflow configuration", "error", err, "actor", actor.Name)
		return nil, err
	}

	s.logger.Info("Workflow configuration replaced", "version", cfg.Version, "steps", len(cfg.Steps), "actor", actor.Name)
	return cfg, nil
}

// ListRoles returns the role table
func (s *workflowServiceImpl) ListRoles(ctx context.Context) ([]entity.RoleDefinition, error) {
	return s.roleRepo.List(ctx)
}

func isAdmin(roles []entity.RoleDefinition, roleID string) bool {
	for _, r := range roles {
		if r.ID == roleID {
			return r.Permissions.CanAdminSystem
		}
	}
	return false
}
