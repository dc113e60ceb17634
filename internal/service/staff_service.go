package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"lead-crm/internal/domain"
	"lead-crm/pkg/utils"
)

type StaffInput struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (in *StaffInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
}

// StaffPatch changes only the supplied fields; an empty password is ignored.
type StaffPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type staffPatchCheck struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

type StaffService struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewStaffService(users domain.UserRepository, l *zap.Logger) *StaffService {
	return &StaffService{users: users, log: l.Named("staff")}
}

func (s *StaffService) ListStaff(ctx context.Context, q ListQuery) (domain.Paged[domain.User], error) {
	pg, err := ParsePage(q.Page, q.Limit)
	if err != nil {
		return domain.Paged[domain.User]{}, err
	}
	items, total, err := s.users.List(ctx, domain.UserQuery{
		Search: strings.TrimSpace(q.Search),
		Role:   domain.RoleStaff,
		Offset: pg.Offset(),
		Limit:  pg.Limit,
	})
	if err != nil {
		return domain.Paged[domain.User]{}, domain.Internal("list staff failed", err)
	}
	return domain.Paged[domain.User]{Items: items, Page: pg.Page, TotalPages: pg.TotalPages(total), Total: total}, nil
}

func (s *StaffService) GetStaff(ctx context.Context, id string) (*domain.User, error) {
	return findStaff(ctx, s.users, id)
}

func (s *StaffService) CreateStaff(ctx context.Context, in StaffInput) (*domain.User, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := createUser(ctx, s.users, in, domain.RoleStaff, "Staff already exists")
	if err != nil {
		return nil, err
	}
	s.log.Info("staff created", zap.String("user", u.ID))
	return u, nil
}

func (s *StaffService) UpdateStaff(ctx context.Context, id string, patch StaffPatch) (*domain.User, error) {
	u, err := findStaff(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	// blank fields keep the stored value, like an empty password
	if name := strings.TrimSpace(deref(patch.Name)); name != "" {
		u.Name = name
	}
	emailChanged := false
	if email := utils.NormalizeEmail(deref(patch.Email)); email != "" {
		emailChanged = email != u.Email
		u.Email = email
	}
	var password string
	if patch.Password != nil {
		password = *patch.Password
	}
	if err := validateStruct(staffPatchCheck{Name: u.Name, Email: u.Email, Password: password}); err != nil {
		return nil, err
	}

	if emailChanged {
		other, err := s.users.FindByEmail(ctx, u.Email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, domain.Conflict("Email already in use")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, domain.Internal("check email failed", err)
		}
	}
	if password != "" {
		h, err := utils.HashPassword(password)
		if err != nil {
			return nil, domain.Internal("hash password failed", err)
		}
		u.PasswordHash = h
	}
	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			return nil, domain.Conflict("Email already in use")
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NotFound("Staff not found")
		}
		return nil, domain.Internal("update staff failed", err)
	}
	return u, nil
}

func (s *StaffService) DeleteStaff(ctx context.Context, id string) error {
	if _, err := findStaff(ctx, s.users, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Staff not found")
		}
		return domain.Internal("delete staff failed", err)
	}
	s.log.Info("staff deleted", zap.String("user", id))
	return nil
}

// createUser hashes the password and inserts a user with the given role.
// The email pre-check gives a clean conflict; the unique index catches races.
func createUser(ctx context.Context, users domain.UserRepository, in StaffInput, role domain.Role, conflictMsg string) (*domain.User, error) {
	_, err := users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, domain.Conflict(conflictMsg)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Internal("check email failed", err)
	}
	h, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password failed", err)
	}
	u := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: h, Role: role}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(conflictMsg)
		}
		return nil, domain.Internal("create user failed", err)
	}
	return u, nil
}
