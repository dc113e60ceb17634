package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lead-crm/internal/core/auth"
	"lead-crm/internal/domain"
	"lead-crm/pkg/utils"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	User      *domain.User
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

var errBadCredentials = domain.Unauthorized("Invalid email or password")

type AuthService struct {
	users   domain.UserRepository
	jwt     *auth.JWTer
	revoker auth.Revoker
	log     *zap.Logger
	sf      singleflight.Group
}

func NewAuthService(users domain.UserRepository, j *auth.JWTer, r auth.Revoker, l *zap.Logger) *AuthService {
	if r == nil {
		r = auth.NopRevoker{}
	}
	return &AuthService{users: users, jwt: j, revoker: r, log: l.Named("auth")}
}

// Register creates a staff account. Public sign-up can never grant admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	si := StaffInput(in)
	si.normalize()
	if err := validateStruct(si); err != nil {
		return nil, err
	}
	u, err := createUser(ctx, s.users, si, domain.RoleStaff, "User already exists")
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user", u.ID))
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return Session{}, err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, errBadCredentials
	}
	if err != nil {
		return Session{}, domain.Internal("load user failed", err)
	}
	if !utils.CheckPassword(in.Password, u.PasswordHash) {
		return Session{}, errBadCredentials
	}
	iss, err := s.jwt.Issue(u.ID, string(u.Role))
	if err != nil {
		return Session{}, domain.Internal("issue token failed", err)
	}
	return Session{User: u, Token: iss.Token, TokenID: iss.ID, ExpiresAt: iss.ExpiresAt}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
		return domain.Internal("revoke token failed", err)
	}
	return nil
}

// Authenticate validates a raw token and resolves the principal behind it.
// The user is re-read on every call so deleted accounts and role changes take
// effect immediately; concurrent lookups for the same id share one query.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, *auth.Claims, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return domain.Principal{}, nil, domain.Unauthorized("Not authorized, token failed")
	}
	revoked, err := s.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return domain.Principal{}, nil, domain.Internal("check revocation failed", err)
	}
	if revoked {
		return domain.Principal{}, nil, domain.Unauthorized("Not authorized, token revoked")
	}
	u, err := s.loadUser(ctx, claims.UID)
	if err != nil {
		return domain.Principal{}, nil, err
	}
	return domain.Principal{ID: u.ID, Role: u.Role}, claims, nil
}

func (s *AuthService) loadUser(ctx context.Context, id string) (*domain.User, error) {
	// one caller going away must not fail the others waiting on the same id
	ch := s.sf.DoChan(id, func() (any, error) {
		return s.users.FindByID(context.WithoutCancel(ctx), id)
	})
	var (
		v   any
		err error
	)
	select {
	case r := <-ch:
		v, err = r.Val, r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("User not found")
	}
	if err != nil {
		return nil, domain.Internal("load user failed", err)
	}
	u := *v.(*domain.User)
	return &u, nil
}

func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, p.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("User not found")
	}
	if err != nil {
		return nil, domain.Internal("load user failed", err)
	}
	return u, nil
}

// BootstrapAdmin creates an admin account, or promotes the existing user with
// that email and resets its password. created reports which happened.
func (s *AuthService) BootstrapAdmin(ctx context.Context, name, email, password string) (u *domain.User, created bool, err error) {
	in := StaffInput{Name: name, Email: email, Password: password}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, false, err
	}
	existing, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u, err := createUser(ctx, s.users, in, domain.RoleAdmin, "User already exists")
		if err != nil {
			return nil, false, err
		}
		s.log.Info("admin created", zap.String("user", u.ID), zap.String("email", u.Email))
		return u, true, nil
	case err != nil:
		return nil, false, domain.Internal("load user failed", err)
	}

	h, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, false, domain.Internal("hash password failed", err)
	}
	existing.Role = domain.RoleAdmin
	existing.PasswordHash = h
	if strings.TrimSpace(in.Name) != "" {
		existing.Name = in.Name
	}
	if err := s.users.Update(ctx, existing); err != nil {
		return nil, false, domain.Internal("promote user failed", err)
	}
	s.log.Info("admin promoted", zap.String("user", existing.ID), zap.String("email", existing.Email))
	return existing, false, nil
}
