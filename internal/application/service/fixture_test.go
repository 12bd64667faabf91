package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/memory"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/repository"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// mockLogger discards everything
type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockSender records delivered notifications
type mockSender struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, n entity.Notification) error
	sent     []entity.Notification
}

func (m *mockSender) Send(ctx context.Context, n entity.Notification) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockSender) Sent() []entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Notification(nil), m.sent...)
}

// mockInvoiceRepo wraps a real repository and lets tests intercept Update
type mockInvoiceRepo struct {
	port.InvoiceRepository
	updateFunc func(ctx context.Context, invoice *entity.Invoice) error
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, invoice)
	}
	return m.InvoiceRepository.Update(ctx, invoice)
}

// mockNotificationRepo wraps a real repository and lets tests intercept Append
type mockNotificationRepo struct {
	port.NotificationRepository
	appendFunc func(ctx context.Context, notifications ...entity.Notification) error
}

func (m *mockNotificationRepo) Append(ctx context.Context, notifications ...entity.Notification) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, notifications...)
	}
	return m.NotificationRepository.Append(ctx, notifications...)
}

type fixture struct {
	store         *memory.Store
	invoices      *mockInvoiceRepo
	vendors       port.VendorRepository
	notifications *mockNotificationRepo
	sender        *mockSender
	engine        *workflow.Engine
	workflow      WorkflowService
	notifier      NotificationService
	taxes         TaxService
	allocations   AllocationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	nop := zap.NewNop()
	seq := 0
	var seqMu sync.Mutex
	engine := workflow.NewEngine(
		workflow.WithClock(func() time.Time { return testNow }),
		workflow.WithIDGenerator(func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("ntf-%d", seq)
		}),
	)

	f := &fixture{
		store:         store,
		invoices:      &mockInvoiceRepo{InvoiceRepository: repository.NewInvoiceRepository(store, nop)},
		vendors:       repository.NewVendorRepository(store, nop),
		notifications: &mockNotificationRepo{NotificationRepository: repository.NewNotificationRepository(store, nop)},
		sender:        &mockSender{},
		engine:        engine,
	}

	f.notifier = NewNotificationService(f.invoices, f.notifications, f.sender, store, engine, mockLogger{})
	f.workflow = NewWorkflowService(
		f.invoices,
		repository.NewWorkflowConfigRepository(store, nop),
		repository.NewRoleRepository(store, nop),
		f.notifications,
		f.notifier,
		store,
		engine,
		mockLogger{},
	)
	f.taxes = NewTaxService(f.invoices, f.vendors, "27", mockLogger{})
	f.allocations = NewAllocationService(f.invoices, repository.NewGLRuleRepository(store, nop), mockLogger{})
	return f
}

func (f *fixture) register(t *testing.T) *entity.Invoice {
	t.Helper()
	inv, err := f.workflow.RegisterInvoice(context.Background(), RegisterInvoiceRequest{
		InvoiceNumber: "MAEU-2025-001",
		VendorID:      "v-gta",
		CarrierName:   "Maersk",
		Amount:        decimal.NewFromInt(2678),
		Variance:      decimal.NewFromInt(178),
		Currency:      "inr",
		TransportMode: "ocean",
		Origin:        "Shanghai, CN",
		Destination:   "Nhava Sheva, IN",
	})
	require.NoError(t, err)
	return inv
}

func decision(stepID string, d workflow.Decision, roleID string) workflow.DecisionRequest {
	return workflow.DecisionRequest{
		StepID:   stepID,
		Decision: d,
		Actor:    entity.Actor{Name: "user-" + roleID, Role: roleID, RoleID: roleID},
		Comment:  "checked",
	}
}
