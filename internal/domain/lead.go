package domain

import (
	"context"
	"time"
)

type LeadStatus string

const (
	StatusNew       LeadStatus = "New"
	StatusContacted LeadStatus = "Contacted"
	StatusQualified LeadStatus = "Qualified"
	StatusLost      LeadStatus = "Lost"
	StatusClosed    LeadStatus = "Closed"
)

// LeadStatuses lists every status in display order. Any status may move to
// any other; there is no transition graph.
var LeadStatuses = []LeadStatus{StatusNew, StatusContacted, StatusQualified, StatusLost, StatusClosed}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Note struct {
	Text      string    `json:"text"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type Lead struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Status     LeadStatus `json:"status"`
	AssignedTo *string    `json:"assignedTo"`
	CreatedBy  string     `json:"createdBy"`
	Notes      []Note     `json:"notes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// AssignedToID returns the assignee id or "" when unassigned.
func (l *Lead) AssignedToID() string {
	if l == nil || l.AssignedTo == nil {
		return ""
	}
	return *l.AssignedTo
}

// LeadQuery narrows a lead listing. A nil AssignedTo matches every lead.
type LeadQuery struct {
	Search     string
	AssignedTo *string
	Offset     int
	Limit      int
}

// LeadRepository persists leads and their note log.
// Update writes the scalar fields and assignment only; notes are written
// exclusively through AppendNote so concurrent appends are never overwritten.
type LeadRepository interface {
	Create(ctx context.Context, l *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, q LeadQuery) ([]Lead, int64, error)
	Update(ctx context.Context, l *Lead) error
	Delete(ctx context.Context, id string) error
	AppendNote(ctx context.Context, leadID string, n Note) ([]Note, error)
}
