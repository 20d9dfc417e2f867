// Package identity es la autoridad de dominio sobre el registro User:
// creación, updates, asignación de rol y soft delete.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/domain/types"
	"github.com/dropDatabas3/careid/internal/observability/logger"
	"github.com/dropDatabas3/careid/internal/security/password"
)

// Errores del service
var (
	ErrMissingFields       = fmt.Errorf("username and email are required")
	ErrDuplicateIdentifier = fmt.Errorf("username or email already in use")
	ErrWeakPassword        = fmt.Errorf("password does not meet policy")
	ErrUnknownRole         = fmt.Errorf("unknown role")
	ErrNotFound            = fmt.Errorf("user not found")
)

// Service define las operaciones de identidad.
type Service interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*repository.User, error)
	UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (*repository.User, error)
	DeactivateUser(ctx context.Context, userID string) error

	// SetPassword aplica la política de complejidad, hashea y persiste.
	SetPassword(ctx context.Context, userID, plaintext string) error

	GetByID(ctx context.Context, userID string) (*repository.User, error)
	GetActiveByID(ctx context.Context, userID string) (*repository.User, error)
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
	ListUsers(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error)
}

// CreateUserInput son los datos de registro.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string // vacío = patient
}

// UpdateUserInput es el update parcial expuesto hacia afuera.
// El rol llega como string y acá se normaliza y deriva flags.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Role     *string
}

// Deps contiene las dependencias del service.
type Deps struct {
	Users  repository.UserRepository
	Policy password.Policy
	Hash   password.Params

	// StrictRoles controla qué pasa con un rol no reconocido:
	// false (default) cae a patient, true retorna ErrUnknownRole.
	StrictRoles bool
}

type service struct {
	deps Deps
}

// New crea el identity service.
func New(deps Deps) Service {
	if deps.Hash == (password.Params{}) {
		deps.Hash = password.Default
	}
	if deps.Policy == nil {
		deps.Policy = password.NewDefaultPolicy(password.DefaultBlacklist())
	}
	return &service{deps: deps}
}

func (s *service) resolveRole(raw string) (types.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return types.RolePatient, nil
	}
	role, ok := types.ParseRole(raw)
	if !ok && s.deps.StrictRoles {
		return "", ErrUnknownRole
	}
	return role, nil
}

func (s *service) CreateUser(ctx context.Context, in CreateUserInput) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("identity"),
		logger.Op("CreateUser"),
	)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" || in.Email == "" {
		return nil, ErrMissingFields
	}

	role, err := s.resolveRole(in.Role)
	if err != nil {
		return nil, err
	}

	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		log.Debug("password rejected by policy", logger.String("reasons", password.FormatReasons(reasons)))
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, password.FormatReasons(reasons))
	}

	hash, err := password.Hash(s.deps.Hash, in.Password)
	if err != nil {
		return nil, err
	}

	flags := role.Flags()
	now := time.Now().UTC()
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		IsStaff:      flags.IsStaff,
		IsSuperuser:  flags.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.deps.Users.Create(ctx, u); err != nil {
		if repository.IsConflict(err) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, err
	}

	log.Info("user created", logger.UserID(u.ID), logger.Role(u.Role.String()))
	return u, nil
}

func (s *service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("identity"),
		logger.Op("UpdateUser"),
		logger.UserID(userID),
	)

	var repoInput repository.UpdateUserInput

	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if v == "" {
			return nil, ErrMissingFields
		}
		repoInput.Username = &v
	}
	if in.Email != nil {
		v := strings.TrimSpace(strings.ToLower(*in.Email))
		if v == "" {
			return nil, ErrMissingFields
		}
		repoInput.Email = &v
	}
	if in.Role != nil {
		role, err := s.resolveRole(*in.Role)
		if err != nil {
			return nil, err
		}
		// Los flags siempre se re-derivan del rol nuevo: promover a staff
		// los prende, demover los apaga.
		flags := role.Flags()
		repoInput.Role = &role
		repoInput.IsStaff = &flags.IsStaff
		repoInput.IsSuperuser = &flags.IsSuperuser
	}

	u, err := s.deps.Users.Update(ctx, userID, repoInput)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		if repository.IsConflict(err) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, err
	}

	log.Info("user updated", logger.Role(u.Role.String()))
	return u, nil
}

func (s *service) DeactivateUser(ctx context.Context, userID string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("identity"),
		logger.Op("DeactivateUser"),
		logger.UserID(userID),
	)

	if err := s.deps.Users.Deactivate(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	log.Info("user deactivated")
	return nil
}

func (s *service) SetPassword(ctx context.Context, userID, plaintext string) error {
	if ok, reasons := s.deps.Policy.Validate(plaintext); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, password.FormatReasons(reasons))
	}
	hash, err := password.Hash(s.deps.Hash, plaintext)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	u, err := s.deps.Users.GetByID(ctx, userID)
	return u, mapNotFound(err)
}

func (s *service) GetActiveByID(ctx context.Context, userID string) (*repository.User, error) {
	u, err := s.deps.Users.GetActiveByID(ctx, userID)
	return u, mapNotFound(err)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	u, err := s.deps.Users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	return u, mapNotFound(err)
}

func (s *service) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	u, err := s.deps.Users.GetByUsername(ctx, strings.TrimSpace(username))
	return u, mapNotFound(err)
}

func (s *service) ListUsers(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error) {
	return s.deps.Users.List(ctx, filter)
}

func mapNotFound(err error) error {
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}
