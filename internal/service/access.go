package service

import "lead-crm/internal/domain"

// Action is an operation a principal attempts on a lead.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionNote   Action = "note"
	ActionAssign Action = "assign"
	ActionCreate Action = "create"
)

type Verdict int

const (
	Deny Verdict = iota
	Allow
)

func (v Verdict) Allowed() bool { return v == Allow }

// CanAccessLead is the only place lead permissions are decided. Admins may do
// anything. Staff may read, update, delete and annotate leads assigned to
// them, and may never create or assign.
func CanAccessLead(p domain.Principal, lead *domain.Lead, a Action) Verdict {
	if p.IsAdmin() {
		return Allow
	}
	if p.Role != domain.RoleStaff || p.ID == "" {
		return Deny
	}
	switch a {
	case ActionRead, ActionUpdate, ActionDelete, ActionNote:
		if lead.AssignedToID() == p.ID {
			return Allow
		}
	}
	return Deny
}

// leadScope returns the assignee filter a principal's listings are confined to.
func leadScope(p domain.Principal) *string {
	if p.IsAdmin() {
		return nil
	}
	id := p.ID
	return &id
}

var denyMessages = map[Action]string{
	ActionRead:   "Not authorized to view this lead",
	ActionUpdate: "Not authorized to update this lead",
	ActionDelete: "Not authorized to delete this lead",
	ActionNote:   "Not authorized to add notes to this lead",
	ActionAssign: "Not authorized as an admin",
	ActionCreate: "Not authorized as an admin",
}

func authorize(p domain.Principal, lead *domain.Lead, a Action) error {
	if CanAccessLead(p, lead, a).Allowed() {
		return nil
	}
	return domain.Forbidden(denyMessages[a])
}
