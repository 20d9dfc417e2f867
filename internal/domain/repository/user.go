package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/types"
)

// User representa un usuario del sistema (paciente, médico, staff o superuser).
// PasswordHash es un PHC string opaco; nunca viaja en vistas externas.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         types.Role
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpdateUserInput contiene los campos actualizables de un usuario.
// Los punteros nil significan "no tocar".
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Role        *types.Role
	IsStaff     *bool
	IsSuperuser *bool
}

// ListUsersFilter opciones para listar usuarios.
type ListUsersFilter struct {
	Role   *types.Role
	Active *bool
	Limit  int // default 50
	Offset int
}

// UserRepository define operaciones sobre usuarios.
//
// Deactivate nunca elimina la fila: is_active=false es el estado terminal y
// el registro sigue siendo accesible por GetByID.
type UserRepository interface {
	// Create persiste un usuario nuevo.
	// Retorna ErrConflict si username o email ya existen.
	Create(ctx context.Context, u *User) error

	// Update aplica un update parcial de forma atómica.
	// Retorna ErrNotFound si el id no existe y ErrConflict en colisión
	// de username/email.
	Update(ctx context.Context, userID string, input UpdateUserInput) (*User, error)

	// UpdatePasswordHash reemplaza el hash del password.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// Deactivate marca el usuario como inactivo (soft delete, idempotente).
	Deactivate(ctx context.Context, userID string) error

	// GetByID busca por id, activo o no.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetActiveByID busca por id filtrando is_active=true.
	// Retorna ErrNotFound tanto si el id no existe como si existe inactivo:
	// ambos casos deben ser indistinguibles para el caller.
	GetActiveByID(ctx context.Context, userID string) (*User, error)

	// GetByEmail busca por email (clave canónica de login).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername busca por username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List lista usuarios con filtros opcionales de rol y estado.
	List(ctx context.Context, filter ListUsersFilter) ([]User, error)
}
