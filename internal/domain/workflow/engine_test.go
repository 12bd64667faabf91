package workflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	seq := 0
	return NewEngine(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("ntf-%d", seq)
		}),
	)
}

func actor(roleID string) entity.Actor {
	return entity.Actor{Name: "user-" + roleID, Role: roleID, RoleID: roleID}
}

func newInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "MAERSK-2025-001",
		CarrierName:   "Maersk",
		Status:        entity.InvoiceStatusPending,
		Amount:        decimal.NewFromInt(2678),
		Variance:      decimal.NewFromInt(178),
		Currency:      "USD",
		TransportMode: entity.TransportModeOcean,
	}
}

func routed(t *testing.T, e *Engine, cfg *entity.WorkflowConfig) *entity.Invoice {
	t.Helper()
	out, err := e.Route(newInvoice(), cfg)
	require.NoError(t, err)
	return out.Invoice
}

func decide(t *testing.T, e *Engine, inv *entity.Invoice, cfg *entity.WorkflowConfig, stepID string, d Decision, roleID string) *Outcome {
	t.Helper()
	out, err := e.Decide(inv, cfg, DefaultRoles(), DecisionRequest{
		StepID:   stepID,
		Decision: d,
		Actor:    actor(roleID),
		Comment:  "ok",
	})
	require.NoError(t, err)
	return out
}

func TestEngine_Route(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()

	out, err := e.Route(newInvoice(), cfg)
	require.NoError(t, err)

	inv := out.Invoice
	assert.Equal(t, entity.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "step-ops", inv.CurrentStep())
	require.NotNil(t, inv.NextApproverRole)
	assert.Equal(t, entity.RoleOpsManager, *inv.NextApproverRole)
	assert.Equal(t, cfg.Version, inv.WorkflowVersion)

	require.Len(t, inv.WorkflowHistory, 3)
	assert.Equal(t, entity.StepStatusActive, inv.WorkflowHistory[0].Status)
	assert.Equal(t, entity.StepStatusPending, inv.WorkflowHistory[1].Status)
	assert.Equal(t, entity.StepStatusPending, inv.WorkflowHistory[2].Status)

	require.Len(t, out.Notifications, 1)
	assert.Equal(t, entity.NotificationTypeAssignment, out.Notifications[0].Type)
	assert.Equal(t, entity.RoleOpsManager, out.Notifications[0].TargetRole)

	_, err = e.Route(inv, cfg)
	assert.ErrorIs(t, err, ErrAlreadyRouted)

	_, err = e.Route(newInvoice(), &entity.WorkflowConfig{Version: 1})
	assert.ErrorIs(t, err, ErrEmptyConfig)
}

func TestEngine_ApproveAdvancesToNextStep(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)
	before := inv.Clone()

	out := decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleOpsManager)

	got := out.Invoice
	assert.Equal(t, entity.InvoiceStatusOpsApproved, got.Status)
	assert.Equal(t, "step-finance", got.CurrentStep())
	assert.Equal(t, entity.RoleFinanceManager, *got.NextApproverRole)

	ops, _ := got.HistoryFor("step-ops")
	assert.Equal(t, entity.StepStatusApproved, ops.Status)
	assert.Equal(t, "user-OPS_MANAGER", ops.ApproverName)
	assert.Equal(t, entity.RoleOpsManager, ops.ApproverRole)
	assert.Equal(t, "ok", ops.Comment)
	require.NotNil(t, ops.Timestamp)
	assert.True(t, ops.Timestamp.Equal(fixedNow))

	fin, _ := got.HistoryFor("step-finance")
	assert.Equal(t, entity.StepStatusActive, fin.Status)

	require.Len(t, out.Notifications, 1)
	n := out.Notifications[0]
	assert.Equal(t, entity.NotificationTypeAssignment, n.Type)
	assert.Equal(t, entity.RoleFinanceManager, n.TargetRole)
	assert.Contains(t, n.Message, entity.RoleFinanceManager)
	assert.Equal(t, "/invoices/inv-1", n.ActionLink)

	// the caller's value is untouched
	assert.Equal(t, before, inv)
}

func TestEngine_ApproveFinalStepReleasesPayment(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	inv = decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleOpsManager).Invoice
	inv = decide(t, e, inv, cfg, "step-finance", DecisionApprove, entity.RoleFinanceManager).Invoice
	assert.Equal(t, entity.InvoiceStatusFinanceApproved, inv.Status)

	out := decide(t, e, inv, cfg, "step-release", DecisionApprove, entity.RoleEnterpriseAdmin)

	got := out.Invoice
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)
	assert.Nil(t, got.CurrentStepID)
	assert.Nil(t, got.NextApproverRole)
	_, active := got.ActiveStep()
	assert.False(t, active)

	require.Len(t, out.Notifications, 1)
	assert.Equal(t, entity.NotificationTypeInfo, out.Notifications[0].Type)
	assert.Contains(t, out.Notifications[0].Message, "Payment released")
}

func TestEngine_WrongRoleIsRefused(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	tests := []struct {
		name   string
		roleID string
	}{
		{"other configured role", entity.RoleFinanceManager},
		{"role without approval rights", entity.RoleAuditor},
		{"unknown role", "GHOST"},
		{"no role", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Decide(inv, cfg, DefaultRoles(), DecisionRequest{
				StepID:   "step-ops",
				Decision: DecisionApprove,
				Actor:    actor(tt.roleID),
			})
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrNotAuthorized)
			assert.Equal(t, KindAuthorization, Kind(err))
		})
	}
}

func TestEngine_AdminMayActOnAnyStep(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	out := decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleEnterpriseAdmin)

	ops, _ := out.Invoice.HistoryFor("step-ops")
	assert.Equal(t, entity.RoleEnterpriseAdmin, ops.ApproverRole)
	// status follows the step's role, not the actor's
	assert.Equal(t, entity.InvoiceStatusOpsApproved, out.Invoice.Status)
}

func TestEngine_RejectIsTerminalAndIdempotent(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)
	inv = decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleOpsManager).Invoice

	first := decide(t, e, inv, cfg, "step-finance", DecisionReject, entity.RoleFinanceManager)
	assert.Equal(t, entity.InvoiceStatusRejected, first.Invoice.Status)
	assert.Nil(t, first.Invoice.CurrentStepID)
	assert.Nil(t, first.Invoice.NextApproverRole)
	assert.Empty(t, first.Notifications)

	fin, _ := first.Invoice.HistoryFor("step-finance")
	assert.Equal(t, entity.StepStatusRejected, fin.Status)

	second := decide(t, e, first.Invoice, cfg, "step-finance", DecisionReject, entity.RoleFinanceManager)
	assert.Equal(t, first.Invoice, second.Invoice)
	assert.Empty(t, second.Notifications)
	assert.True(t, second.Noop)
	assert.False(t, first.Noop)

	// approving after rejection is a conflict
	_, err := e.Decide(first.Invoice, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-finance", Decision: DecisionApprove, Actor: actor(entity.RoleFinanceManager),
	})
	assert.ErrorIs(t, err, ErrInvoiceClosed)
	assert.Equal(t, KindConflict, Kind(err))

	// rejecting a different step of a closed invoice is a conflict too
	_, err = e.Decide(first.Invoice, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-release", Decision: DecisionReject, Actor: actor(entity.RoleEnterpriseAdmin),
	})
	assert.ErrorIs(t, err, ErrInvoiceClosed)
}

func TestEngine_SecondApprovalOfSameStepConflicts(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	after := decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleOpsManager).Invoice

	out, err := e.Decide(after, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-ops", Decision: DecisionApprove, Actor: actor(entity.RoleOpsManager),
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrStepNotActive)
	assert.Equal(t, KindConflict, Kind(err))
}

func TestEngine_DecidingAheadOfActiveStepConflicts(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	_, err := e.Decide(inv, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-release", Decision: DecisionApprove, Actor: actor(entity.RoleEnterpriseAdmin),
	})
	assert.ErrorIs(t, err, ErrStepNotActive)
}

func TestEngine_StepNotFoundLeavesInvoiceUnchanged(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)
	before := inv.Clone()

	out, err := e.Decide(inv, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-missing", Decision: DecisionApprove, Actor: actor(entity.RoleEnterpriseAdmin),
	})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrStepNotFound)
	assert.Equal(t, KindConfiguration, Kind(err))
	assert.Equal(t, before, inv)
}

func TestEngine_ConfigVersionMismatch(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	edited := DefaultConfig()
	edited.Version = 2

	_, err := e.Decide(inv, edited, DefaultRoles(), DecisionRequest{
		StepID: "step-ops", Decision: DecisionApprove, Actor: actor(entity.RoleOpsManager),
	})
	assert.ErrorIs(t, err, ErrConfigVersionMismatch)
	assert.Equal(t, KindConfiguration, Kind(err))
}

func TestEngine_InvalidInput(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	_, err := e.Decide(inv, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-ops", Decision: Decision("MAYBE"), Actor: actor(entity.RoleOpsManager),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, Kind(err))

	_, err = e.Decide(nil, cfg, DefaultRoles(), DecisionRequest{
		StepID: "step-ops", Decision: DecisionApprove, Actor: actor(entity.RoleOpsManager),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.Decide(inv, &entity.WorkflowConfig{}, DefaultRoles(), DecisionRequest{
		StepID: "step-ops", Decision: DecisionApprove, Actor: actor(entity.RoleOpsManager),
	})
	assert.ErrorIs(t, err, ErrEmptyConfig)
}

func TestEngine_SingleStepConfigGoesStraightToPaid(t *testing.T) {
	e := newTestEngine()
	cfg := &entity.WorkflowConfig{
		Version: 7,
		Steps: []entity.WorkflowStepConfig{
			{ID: "only", StepName: "Sign-off", RoleID: entity.RoleFinanceManager, ConditionType: entity.ConditionAlways},
		},
	}
	inv := routed(t, e, cfg)

	out := decide(t, e, inv, cfg, "only", DecisionApprove, entity.RoleFinanceManager)

	assert.Equal(t, entity.InvoiceStatusPaid, out.Invoice.Status)
	assert.Nil(t, out.Invoice.CurrentStepID)
	require.Len(t, out.Invoice.WorkflowHistory, 1)
	assert.Equal(t, entity.StepStatusApproved, out.Invoice.WorkflowHistory[0].Status)
}

func TestEngine_FillsHistoryGaps(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()

	// seeded elsewhere without history
	inv := newInvoice()
	inv.CurrentStepID = entity.StringPtr("step-finance")
	inv.NextApproverRole = entity.StringPtr(entity.RoleFinanceManager)

	out := decide(t, e, inv, cfg, "step-finance", DecisionApprove, entity.RoleFinanceManager)

	got := out.Invoice
	require.Len(t, got.WorkflowHistory, 3)
	assert.Equal(t, "step-ops", got.WorkflowHistory[0].StepID)
	assert.Equal(t, entity.StepStatusPending, got.WorkflowHistory[0].Status)
	assert.Equal(t, "step-finance", got.WorkflowHistory[1].StepID)
	assert.Equal(t, entity.StepStatusApproved, got.WorkflowHistory[1].Status)
	assert.Equal(t, "step-release", got.WorkflowHistory[2].StepID)
	assert.Equal(t, entity.StepStatusActive, got.WorkflowHistory[2].Status)
	assert.Empty(t, inv.WorkflowHistory)
}

func TestEngine_AdvancementIsMonotonic(t *testing.T) {
	e := newTestEngine()
	cfg := DefaultConfig()
	inv := routed(t, e, cfg)

	for {
		current := inv.CurrentStep()
		if current == "" {
			break
		}
		idx := cfg.IndexOf(current)
		step := cfg.Steps[idx]

		inv = decide(t, e, inv, cfg, step.ID, DecisionApprove, step.RoleID).Invoice

		if next := inv.CurrentStep(); next != "" {
			assert.Equal(t, idx+1, cfg.IndexOf(next))
		} else {
			assert.Equal(t, len(cfg.Steps)-1, idx)
		}

		// every step up to the furthest reached has exactly one entry
		seen := map[string]int{}
		for _, item := range inv.WorkflowHistory {
			seen[item.StepID]++
		}
		for i := 0; i <= idx; i++ {
			assert.Equal(t, 1, seen[cfg.Steps[i].ID], "step %s", cfg.Steps[i].ID)
		}

		actives := 0
		for _, item := range inv.WorkflowHistory {
			if item.Status == entity.StepStatusActive {
				actives++
				assert.Equal(t, inv.CurrentStep(), item.StepID)
			}
		}
		if inv.Status.IsTerminal() {
			assert.Zero(t, actives)
		} else {
			assert.Equal(t, 1, actives)
		}
	}

	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
}

func TestEngine_Reminder(t *testing.T) {
	e := newTestEngine()
	inv := routed(t, e, DefaultConfig())

	n := e.Reminder(inv, fixedNow.Add(-72*time.Hour))

	assert.Equal(t, entity.NotificationTypeInfo, n.Type)
	assert.Equal(t, entity.RoleOpsManager, n.TargetRole)
	assert.Contains(t, n.Message, "MAERSK-2025-001")
	assert.Contains(t, n.Message, "2025-03-11 09:30")
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "", Kind(errors.New("boom")))
	assert.Equal(t, KindConflict, Kind(fmt.Errorf("wrapped: %w", ErrStepAlreadyResolved)))
}

func TestValidateConfig(t *testing.T) {
	threshold := decimal.NewFromInt(5000)

	tests := []struct {
		name    string
		steps   []entity.WorkflowStepConfig
		wantErr bool
	}{
		{"default chain", DefaultConfig().Steps, false},
		{"empty", nil, true},
		{"missing id", []entity.WorkflowStepConfig{{RoleID: entity.RoleOpsManager}}, true},
		{"duplicate id", []entity.WorkflowStepConfig{
			{ID: "a", RoleID: entity.RoleOpsManager},
			{ID: "a", RoleID: entity.RoleFinanceManager},
		}, true},
		{"missing role", []entity.WorkflowStepConfig{{ID: "a"}}, true},
		{"unknown role", []entity.WorkflowStepConfig{{ID: "a", RoleID: "GHOST"}}, true},
		{"threshold without value", []entity.WorkflowStepConfig{
			{ID: "a", RoleID: entity.RoleOpsManager, ConditionType: entity.ConditionAmountThreshold},
		}, true},
		{"threshold with value", []entity.WorkflowStepConfig{
			{ID: "a", RoleID: entity.RoleOpsManager, ConditionType: entity.ConditionAmountThreshold, ConditionValue: &threshold},
		}, false},
		{"unknown condition", []entity.WorkflowStepConfig{
			{ID: "a", RoleID: entity.RoleOpsManager, ConditionType: "WEEKDAY"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&entity.WorkflowConfig{Version: 1, Steps: tt.steps}, DefaultRoles())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	e := newTestEngine()
	threshold := decimal.NewFromInt(10000)
	cfg := DefaultConfig()
	cfg.Steps[2].ConditionType = entity.ConditionAmountThreshold
	cfg.Steps[2].ConditionValue = &threshold

	inv := routed(t, e, cfg)
	inv = decide(t, e, inv, cfg, "step-ops", DecisionApprove, entity.RoleOpsManager).Invoice

	preview := Preview(inv, cfg)
	require.Len(t, preview, 3)

	assert.Equal(t, entity.StepStatusApproved, preview[0].Status)
	assert.False(t, preview[0].Current)
	assert.Equal(t, entity.StepStatusActive, preview[1].Status)
	assert.True(t, preview[1].Current)
	assert.True(t, preview[1].Applies)
	// 2678 is below the release threshold
	assert.False(t, preview[2].Applies)
	assert.Equal(t, entity.StepStatusPending, preview[2].Status)
}
