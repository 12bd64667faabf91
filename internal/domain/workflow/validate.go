package workflow

import (
	"fmt"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// ValidateConfig checks a workflow configuration before it is saved.
// When roles is non-empty every step must reference a known role.
func ValidateConfig(cfg *entity.WorkflowConfig, roles []entity.RoleDefinition) error {
	if cfg == nil || len(cfg.Steps) == 0 {
		return ErrEmptyConfig
	}

	known := make(map[string]bool, len(roles))
	for _, r := range roles {
		known[r.ID] = true
	}

	seen := make(map[string]bool, len(cfg.Steps))
	for i, step := range cfg.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step %d has no id", ErrConfiguration, i)
		}
		if seen[step.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrConfiguration, step.ID)
		}
		seen[step.ID] = true

		if step.RoleID == "" {
			return fmt.Errorf("%w: step %q has no role", ErrConfiguration, step.ID)
		}
		if len(known) > 0 && !known[step.RoleID] {
			return fmt.Errorf("%w: step %q references unknown role %q", ErrConfiguration, step.ID, step.RoleID)
		}

		switch step.ConditionType {
		case "", entity.ConditionAlways:
		case entity.ConditionAmountThreshold, entity.ConditionVarianceThreshold:
			if step.ConditionValue == nil {
				return fmt.Errorf("%w: step %q condition %s needs a value", ErrConfiguration, step.ID, step.ConditionType)
			}
		default:
			return fmt.Errorf("%w: step %q has unknown condition %q", ErrConfiguration, step.ID, step.ConditionType)
		}
	}

	return nil
}
