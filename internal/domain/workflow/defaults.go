package workflow

import "github.com/garyjia/freight-audit/internal/domain/entity"

// DefaultConfig returns the three-step chain used until an administrator
// saves a configuration.
func DefaultConfig() *entity.WorkflowConfig {
	return &entity.WorkflowConfig{
		Version: 1,
		Steps: []entity.WorkflowStepConfig{
			{ID: "step-ops", StepName: "Operations Review", RoleID: entity.RoleOpsManager, ConditionType: entity.ConditionAlways},
			{ID: "step-finance", StepName: "Finance Approval", RoleID: entity.RoleFinanceManager, ConditionType: entity.ConditionAlways},
			{ID: "step-release", StepName: "Payment Release", RoleID: entity.RoleEnterpriseAdmin, ConditionType: entity.ConditionAlways},
		},
	}
}

// DefaultRoles returns the built-in role table
func DefaultRoles() []entity.RoleDefinition {
	return []entity.RoleDefinition{
		{ID: entity.RoleOpsManager, Name: "Operations Manager", Permissions: entity.Permissions{CanApprove: true}},
		{ID: entity.RoleFinanceManager, Name: "Finance Manager", Permissions: entity.Permissions{CanApprove: true, CanViewTax: true}},
		{ID: entity.RoleEnterpriseAdmin, Name: "Enterprise Admin", Permissions: entity.Permissions{CanApprove: true, CanViewTax: true, CanAdminSystem: true}},
		{ID: entity.RoleAuditor, Name: "Freight Auditor", Permissions: entity.Permissions{CanViewTax: true}},
	}
}
