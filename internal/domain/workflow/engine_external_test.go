package workflow_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// Exercises the package only through its exported surface, so package
// initialization runs exactly as it does for importers.
func TestEngine_FromImportingPackage(t *testing.T) {
	e := workflow.NewEngine()
	cfg := workflow.DefaultConfig()
	roles := workflow.DefaultRoles()

	routed, err := e.Route(&entity.Invoice{ID: "inv-ext", InvoiceNumber: "ONEY-9", Amount: decimal.NewFromInt(900)}, cfg)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}

	inv := routed.Invoice
	for _, step := range cfg.Steps {
		out, err := e.Decide(inv, cfg, roles, workflow.DecisionRequest{
			StepID:   step.ID,
			Decision: workflow.DecisionApprove,
			Actor:    entity.Actor{Name: "approver", RoleID: step.RoleID},
		})
		if err != nil {
			t.Fatalf("Decide(%s) error = %v", step.ID, err)
		}
		inv = out.Invoice
	}

	if inv.Status != entity.InvoiceStatusPaid {
		t.Errorf("Status = %s, want %s", inv.Status, entity.InvoiceStatusPaid)
	}
	if !workflow.StatePending.IsValid() || workflow.State("BOGUS").IsValid() {
		t.Error("State.IsValid() disagrees with the step states")
	}
}
