package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/infrastructure/persistence/memory"
)

func newInvoice(id string, status entity.InvoiceStatus, role string) *entity.Invoice {
	inv := &entity.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + id,
		Status:        status,
		Amount:        decimal.NewFromInt(1000),
		Currency:      "INR",
	}
	if role != "" {
		inv.NextApproverRole = entity.StringPtr(role)
	}
	return inv
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(memory.NewStore(), zap.NewNop())

	inv := newInvoice("a", entity.InvoiceStatusPending, entity.RoleOpsManager)
	require.NoError(t, repo.Create(ctx, inv))
	assert.Equal(t, int64(1), inv.Version)
	assert.False(t, inv.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-a", got.InvoiceNumber)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))

	err = repo.Create(ctx, newInvoice("a", entity.InvoiceStatusPending, ""))
	assert.ErrorIs(t, err, port.ErrAlreadyExists)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestInvoiceRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(memory.NewStore(), zap.NewNop())

	require.NoError(t, repo.Create(ctx, newInvoice("a", entity.InvoiceStatusPending, entity.RoleOpsManager)))
	require.NoError(t, repo.Create(ctx, newInvoice("b", entity.InvoiceStatusOpsApproved, entity.RoleFinanceManager)))
	require.NoError(t, repo.Create(ctx, newInvoice("c", entity.InvoiceStatusPaid, "")))

	all, err := repo.List(ctx, port.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byStatus, err := repo.List(ctx, port.InvoiceFilter{Status: entity.InvoiceStatusOpsApproved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "b", byStatus[0].ID)

	byRole, err := repo.List(ctx, port.InvoiceFilter{Role: entity.RoleOpsManager})
	require.NoError(t, err)
	require.Len(t, byRole, 1)
	assert.Equal(t, "a", byRole[0].ID)
}

func TestInvoiceRepository_UpdateIsOptimistic(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(memory.NewStore(), zap.NewNop())
	require.NoError(t, repo.Create(ctx, newInvoice("a", entity.InvoiceStatusPending, entity.RoleOpsManager)))

	first, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)

	first.Status = entity.InvoiceStatusOpsApproved
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Status = entity.InvoiceStatusRejected
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, port.ErrVersionConflict)
	assert.Equal(t, int64(1), second.Version)

	stored, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusOpsApproved, stored.Status)

	err = repo.Update(ctx, newInvoice("missing", entity.InvoiceStatusPending, ""))
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestWorkflowConfigRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowConfigRepository(memory.NewStore(), zap.NewNop())

	cfg, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Version)
	assert.Len(t, cfg.Steps, 3)

	next, err := repo.Replace(ctx, cfg.Steps[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Version)

	again, err := repo.Replace(ctx, cfg.Steps[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(3), again.Version)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Len(t, got.Steps, 1)
}

func TestDefaultsWhenCollectionsAreEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	roles, err := NewRoleRepository(store, zap.NewNop()).List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 4)

	rules, err := NewGLRuleRepository(store, zap.NewNop()).List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, rules)

	vendors, err := NewVendorRepository(store, zap.NewNop()).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, vendors)
}

func TestVendorRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewVendorRepository(memory.NewStore(), zap.NewNop())

	require.NoError(t, repo.Upsert(ctx, &entity.Vendor{ID: "v1", Name: "Blue Dart"}))
	require.NoError(t, repo.Upsert(ctx, &entity.Vendor{ID: "v1", Name: "Blue Dart Express"}))
	require.NoError(t, repo.Upsert(ctx, &entity.Vendor{ID: "v2", Name: "Gati"}))

	vendors, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 2)

	v, err := repo.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Dart Express", v.Name)

	_, err = repo.GetByID(ctx, "v3")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(memory.NewStore(), zap.NewNop())

	require.NoError(t, repo.Append(ctx))
	require.NoError(t, repo.Append(ctx,
		entity.Notification{ID: "1", Type: entity.NotificationTypeAssignment, TargetRole: entity.RoleOpsManager},
		entity.Notification{ID: "2", Type: entity.NotificationTypeAssignment, TargetRole: entity.RoleFinanceManager},
	))
	require.NoError(t, repo.Append(ctx, entity.Notification{ID: "3", Type: entity.NotificationTypeInfo}))

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].ID)

	ops, err := repo.List(ctx, entity.RoleOpsManager, 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "3", ops[0].ID)
	assert.Equal(t, "1", ops[1].ID)

	limited, err := repo.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
