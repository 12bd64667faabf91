package entity

// Permissions holds capability flags for a role
type Permissions struct {
	CanApprove     bool `json:"can_approve"`
	CanViewTax     bool `json:"can_view_tax"`
	CanAdminSystem bool `json:"can_admin_system"`
}

// RoleDefinition describes a role that can be assigned to workflow steps
type RoleDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

// Actor is the user performing a workflow decision
type Actor struct {
	Name   string `json:"name"`
	Role   string `json:"role"`    // display name
	RoleID string `json:"role_id"` // matched against WorkflowStepConfig.RoleID
}
