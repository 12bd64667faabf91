package workflow

import "github.com/garyjia/freight-audit/internal/domain/entity"

// StepPreview shows where an invoice stands on one configured step
type StepPreview struct {
	StepID   string            `json:"step_id"`
	StepName string            `json:"step_name"`
	RoleID   string            `json:"role_id"`
	Applies  bool              `json:"applies"`
	Status   entity.StepStatus `json:"status"`
	Current  bool              `json:"current"`
}

// Preview lists every configured step with its condition result and the
// invoice's recorded status for it. Steps without history show PENDING.
func Preview(inv *entity.Invoice, cfg *entity.WorkflowConfig) []StepPreview {
	if inv == nil || cfg == nil {
		return nil
	}

	out := make([]StepPreview, 0, len(cfg.Steps))
	for _, step := range cfg.Steps {
		status := entity.StepStatusPending
		if item, ok := inv.HistoryFor(step.ID); ok {
			status = item.Status
		}
		out = append(out, StepPreview{
			StepID:   step.ID,
			StepName: step.StepName,
			RoleID:   step.RoleID,
			Applies:  step.Applies(inv),
			Status:   status,
			Current:  inv.CurrentStep() == step.ID,
		})
	}
	return out
}
