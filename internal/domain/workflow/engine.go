package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// roleStatus maps the role of an approved step onto the invoice status used
// for dashboard filtering. Roles not listed leave the status unchanged.
var roleStatus = map[string]entity.InvoiceStatus{
	entity.RoleOpsManager:     entity.InvoiceStatusOpsApproved,
	entity.RoleFinanceManager: entity.InvoiceStatusFinanceApproved,
}

// Engine applies approval decisions to invoices. It holds no state beyond
// its clock and id source and never mutates the invoices it is given.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used for stamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the notification id source
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates a new workflow engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DecisionRequest is one approver's verdict on one step
type DecisionRequest struct {
	StepID   string
	Decision Decision
	Actor    entity.Actor
	Comment  string
}

// Outcome is the result of a decision
type Outcome struct {
	Invoice       *entity.Invoice
	Notifications []entity.Notification

	// Noop is set when the decision repeated one already recorded
	Noop bool
}

// Decide applies req to inv under cfg. On error the caller's invoice is
// untouched and no partial result is returned.
func (e *Engine) Decide(inv *entity.Invoice, cfg *entity.WorkflowConfig, roles []entity.RoleDefinition, req DecisionRequest) (*Outcome, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: invoice is required", ErrValidation)
	}
	if !req.Decision.IsValid() {
		return nil, fmt.Errorf("%w: decision must be APPROVE or REJECT, got %q", ErrValidation, req.Decision)
	}
	if cfg == nil || len(cfg.Steps) == 0 {
		return nil, ErrEmptyConfig
	}

	idx := cfg.IndexOf(req.StepID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrStepNotFound, req.StepID)
	}
	if inv.WorkflowVersion != 0 && inv.WorkflowVersion != cfg.Version {
		return nil, fmt.Errorf("%w: invoice v%d, configuration v%d", ErrConfigVersionMismatch, inv.WorkflowVersion, cfg.Version)
	}

	step := cfg.Steps[idx]
	if !CanAct(roles, req.Actor.RoleID, step.RoleID) {
		return nil, fmt.Errorf("%w: role %q cannot act on step %q (requires %s)", ErrNotAuthorized, req.Actor.RoleID, step.ID, step.RoleID)
	}

	if req.Decision == DecisionReject && isRejectedAt(inv, step.ID) {
		return &Outcome{Invoice: inv.Clone(), Noop: true}, nil
	}
	if inv.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: status %s", ErrInvoiceClosed, inv.Status)
	}
	if inv.CurrentStep() != step.ID {
		return nil, fmt.Errorf("%w: %q (active: %q)", ErrStepNotActive, step.ID, inv.CurrentStep())
	}

	now := e.now()
	out := inv.Clone()

	reach := idx
	if req.Decision == DecisionApprove && idx+1 < len(cfg.Steps) {
		reach = idx + 1
	}
	out.WorkflowHistory = completeHistory(out.WorkflowHistory, cfg, reach)

	item := &out.WorkflowHistory[out.HistoryIndex(step.ID)]
	status, err := advanceStep(item.Status, req.Decision.Trigger())
	if err != nil {
		return nil, fmt.Errorf("%w: step %q is %s: %v", ErrStepAlreadyResolved, step.ID, item.Status, err)
	}
	item.Status = status
	item.ApproverName = req.Actor.Name
	item.ApproverRole = approverRole(req.Actor)
	item.Timestamp = &now
	item.Comment = req.Comment
	out.UpdatedAt = now

	if req.Decision == DecisionReject {
		out.Status = entity.InvoiceStatusRejected
		out.CurrentStepID = nil
		out.NextApproverRole = nil
		return &Outcome{Invoice: out}, nil
	}

	if idx+1 >= len(cfg.Steps) {
		out.Status = entity.InvoiceStatusPaid
		out.CurrentStepID = nil
		out.NextApproverRole = nil
		return &Outcome{
			Invoice: out,
			Notifications: []entity.Notification{e.notify(out, entity.NotificationTypeInfo, "",
				fmt.Sprintf("Payment released for invoice %s", displayNumber(out)), now)},
		}, nil
	}

	next := cfg.Steps[idx+1]
	nextItem := &out.WorkflowHistory[out.HistoryIndex(next.ID)]
	activated, err := advanceStep(nextItem.Status, TriggerActivate)
	if err != nil {
		return nil, fmt.Errorf("%w: next step %q is %s: %v", ErrStepAlreadyResolved, next.ID, nextItem.Status, err)
	}
	nextItem.Status = activated
	nextItem.Timestamp = &now

	out.CurrentStepID = entity.StringPtr(next.ID)
	out.NextApproverRole = entity.StringPtr(next.RoleID)
	if mapped, ok := roleStatus[step.RoleID]; ok {
		out.Status = mapped
	}

	return &Outcome{
		Invoice: out,
		Notifications: []entity.Notification{e.notify(out, entity.NotificationTypeAssignment, next.RoleID,
			fmt.Sprintf("Invoice %s is awaiting %s at step %q", displayNumber(out), next.RoleID, stepLabel(next)), now)},
	}, nil
}

// Route seeds the workflow state of a freshly registered invoice: the first
// step ACTIVE, the rest PENDING.
func (e *Engine) Route(inv *entity.Invoice, cfg *entity.WorkflowConfig) (*Outcome, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: invoice is required", ErrValidation)
	}
	if cfg == nil || len(cfg.Steps) == 0 {
		return nil, ErrEmptyConfig
	}
	if len(inv.WorkflowHistory) > 0 {
		return nil, ErrAlreadyRouted
	}

	now := e.now()
	out := inv.Clone()
	out.WorkflowHistory = make([]entity.WorkflowHistoryItem, len(cfg.Steps))
	for i, step := range cfg.Steps {
		out.WorkflowHistory[i] = entity.WorkflowHistoryItem{StepID: step.ID, Status: entity.StepStatusPending}
	}

	first := cfg.Steps[0]
	out.WorkflowHistory[0].Status = entity.StepStatusActive
	out.WorkflowHistory[0].Timestamp = &now
	out.Status = entity.InvoiceStatusPending
	out.CurrentStepID = entity.StringPtr(first.ID)
	out.NextApproverRole = entity.StringPtr(first.RoleID)
	out.WorkflowVersion = cfg.Version
	out.UpdatedAt = now

	return &Outcome{
		Invoice: out,
		Notifications: []entity.Notification{e.notify(out, entity.NotificationTypeAssignment, first.RoleID,
			fmt.Sprintf("Invoice %s is awaiting %s at step %q", displayNumber(out), first.RoleID, stepLabel(first)), now)},
	}, nil
}

// Reminder builds the INFO notification sent when the active step of inv has
// been waiting since `since`.
func (e *Engine) Reminder(inv *entity.Invoice, since time.Time) entity.Notification {
	role := ""
	if inv.NextApproverRole != nil {
		role = *inv.NextApproverRole
	}
	now := e.now()
	return e.notify(inv, entity.NotificationTypeInfo, role,
		fmt.Sprintf("Invoice %s has been waiting for %s since %s", displayNumber(inv), role, since.Format("2006-01-02 15:04")), now)
}

func (e *Engine) notify(inv *entity.Invoice, typ entity.NotificationType, role, msg string, at time.Time) entity.Notification {
	return entity.Notification{
		ID:         e.newID(),
		Type:       typ,
		InvoiceID:  inv.ID,
		TargetRole: role,
		Message:    msg,
		ActionLink: "/invoices/" + inv.ID,
		Timestamp:  at,
	}
}

// completeHistory orders history like cfg and fills PENDING placeholders for
// every configured step up to index reach. Items for steps no longer in cfg
// are kept after the configured ones.
func completeHistory(history []entity.WorkflowHistoryItem, cfg *entity.WorkflowConfig, reach int) []entity.WorkflowHistoryItem {
	byID := make(map[string]int, len(history))
	for i, item := range history {
		if _, dup := byID[item.StepID]; !dup {
			byID[item.StepID] = i
		}
	}

	used := make([]bool, len(history))
	out := make([]entity.WorkflowHistoryItem, 0, len(cfg.Steps))
	for i, step := range cfg.Steps {
		if j, ok := byID[step.ID]; ok {
			out = append(out, history[j])
			used[j] = true
			continue
		}
		if i <= reach {
			out = append(out, entity.WorkflowHistoryItem{StepID: step.ID, Status: entity.StepStatusPending})
		}
	}
	for j, item := range history {
		if !used[j] && byID[item.StepID] == j {
			out = append(out, item)
		}
	}
	return out
}

func isRejectedAt(inv *entity.Invoice, stepID string) bool {
	if inv.Status != entity.InvoiceStatusRejected {
		return false
	}
	item, ok := inv.HistoryFor(stepID)
	return ok && item.Status == entity.StepStatusRejected
}

func approverRole(a entity.Actor) string {
	if a.RoleID != "" {
		return a.RoleID
	}
	return a.Role
}

func displayNumber(inv *entity.Invoice) string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	return inv.ID
}

func stepLabel(s entity.WorkflowStepConfig) string {
	if s.StepName != "" {
		return s.StepName
	}
	return s.ID
}
