package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"lead-crm/internal/domain"
)

// ListQuery is the raw search/paging input shared by lead and staff listings.
type ListQuery struct {
	Search string `form:"search"`
	Page   string `form:"page"`
	Limit  string `form:"limit"`
}

type LeadInput struct {
	Name       string            `json:"name" validate:"required,max=128"`
	Email      string            `json:"email" validate:"required,email"`
	Phone      string            `json:"phone" validate:"required,max=64"`
	Status     domain.LeadStatus `json:"status" validate:"omitempty,oneof=New Contacted Qualified Lost Closed"`
	AssignedTo *string           `json:"assignedTo"`
}

func (in *LeadInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.AssignedTo != nil && strings.TrimSpace(*in.AssignedTo) == "" {
		in.AssignedTo = nil
	}
}

// LeadPatch holds the fields a lead update may change. A nil field is left
// untouched.
type LeadPatch struct {
	Name   *string            `json:"name"`
	Email  *string            `json:"email"`
	Phone  *string            `json:"phone"`
	Status *domain.LeadStatus `json:"status"`
}

func (p LeadPatch) applyTo(l *domain.Lead) {
	if p.Name != nil {
		l.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		l.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		l.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
}

type LeadService struct {
	leads domain.LeadRepository
	users domain.UserRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewLeadService(leads domain.LeadRepository, users domain.UserRepository, l *zap.Logger) *LeadService {
	return &LeadService{leads: leads, users: users, log: l.Named("leads"), now: func() time.Time { return time.Now().UTC() }}
}

func (s *LeadService) ListLeads(ctx context.Context, p domain.Principal, q ListQuery) (domain.Paged[domain.Lead], error) {
	pg, err := ParsePage(q.Page, q.Limit)
	if err != nil {
		return domain.Paged[domain.Lead]{}, err
	}
	items, total, err := s.leads.List(ctx, domain.LeadQuery{
		Search:     strings.TrimSpace(q.Search),
		AssignedTo: leadScope(p),
		Offset:     pg.Offset(),
		Limit:      pg.Limit,
	})
	if err != nil {
		return domain.Paged[domain.Lead]{}, domain.Internal("list leads failed", err)
	}
	return domain.Paged[domain.Lead]{Items: items, Page: pg.Page, TotalPages: pg.TotalPages(total), Total: total}, nil
}

// load fetches a lead and checks the principal may perform a on it. A missing
// lead is reported before any permission failure.
func (s *LeadService) load(ctx context.Context, p domain.Principal, id string, a Action) (*domain.Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Lead not found")
	}
	if err != nil {
		return nil, domain.Internal("load lead failed", err)
	}
	if err := authorize(p, l, a); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) GetLead(ctx context.Context, p domain.Principal, id string) (*domain.Lead, error) {
	return s.load(ctx, p, id, ActionRead)
}

func (s *LeadService) CreateLead(ctx context.Context, p domain.Principal, in LeadInput) (*domain.Lead, error) {
	if err := authorize(p, nil, ActionCreate); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.AssignedTo != nil {
		if _, err := s.findStaff(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
	}
	status := in.Status
	if status == "" {
		status = domain.StatusNew
	}
	l := &domain.Lead{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Status:     status,
		AssignedTo: in.AssignedTo,
		CreatedBy:  p.ID,
		Notes:      []domain.Note{},
	}
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, domain.Internal("create lead failed", err)
	}
	s.log.Info("lead created", zap.String("lead", l.ID), zap.String("by", p.ID))
	return l, nil
}

func (s *LeadService) UpdateLead(ctx context.Context, p domain.Principal, id string, patch LeadPatch) (*domain.Lead, error) {
	l, err := s.load(ctx, p, id, ActionUpdate)
	if err != nil {
		return nil, err
	}
	patch.applyTo(l)
	if err := validateStruct(LeadInput{Name: l.Name, Email: l.Email, Phone: l.Phone, Status: l.Status}); err != nil {
		return nil, err
	}
	if err := s.leads.Update(ctx, l); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Lead not found")
		}
		return nil, domain.Internal("update lead failed", err)
	}
	return l, nil
}

func (s *LeadService) DeleteLead(ctx context.Context, p domain.Principal, id string) error {
	if _, err := s.load(ctx, p, id, ActionDelete); err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Lead not found")
		}
		return domain.Internal("delete lead failed", err)
	}
	s.log.Info("lead deleted", zap.String("lead", id), zap.String("by", p.ID))
	return nil
}

func (s *LeadService) AssignLead(ctx context.Context, p domain.Principal, leadID, staffID string) (*domain.Lead, error) {
	if err := authorize(p, nil, ActionAssign); err != nil {
		return nil, err
	}
	l, err := s.load(ctx, p, leadID, ActionAssign)
	if err != nil {
		return nil, err
	}
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return nil, domain.Validation("Validation failed", domain.FieldError{Field: "staffId", Message: "is required"})
	}
	if _, err := s.findStaff(ctx, staffID); err != nil {
		return nil, err
	}
	l.AssignedTo = &staffID
	if err := s.leads.Update(ctx, l); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Lead not found")
		}
		return nil, domain.Internal("assign lead failed", err)
	}
	s.log.Info("lead assigned", zap.String("lead", l.ID), zap.String("staff", staffID))
	return l, nil
}

func (s *LeadService) AddNote(ctx context.Context, p domain.Principal, leadID, text string) ([]domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Validation("Note text is required", domain.FieldError{Field: "text", Message: "is required"})
	}
	if _, err := s.load(ctx, p, leadID, ActionNote); err != nil {
		return nil, err
	}
	notes, err := s.leads.AppendNote(ctx, leadID, domain.Note{Text: text, CreatedBy: p.ID, CreatedAt: s.now()})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Lead not found")
	}
	if err != nil {
		return nil, domain.Internal("add note failed", err)
	}
	return notes, nil
}

// findStaff resolves a user that exists and holds the staff role.
func (s *LeadService) findStaff(ctx context.Context, id string) (*domain.User, error) {
	return findStaff(ctx, s.users, id)
}

func findStaff(ctx context.Context, users domain.UserRepository, id string) (*domain.User, error) {
	u, err := users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && u.Role != domain.RoleStaff) {
		return nil, domain.NotFound("Staff not found")
	}
	if err != nil {
		return nil, domain.Internal("load staff failed", err)
	}
	return u, nil
}
