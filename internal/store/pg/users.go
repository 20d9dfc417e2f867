package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/domain/types"
	"github.com/dropDatabas3/careid/internal/store"
)

type userRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

const userCols = "id, username, email, password_hash, role, is_active, is_staff, is_superuser, created_at, updated_at"

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	u.Role, _ = types.ParseRole(role)
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (`+userCols+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Role.String(),
			u.IsActive, u.IsStaff, u.IsSuperuser, u.CreatedAt, u.UpdatedAt,
		)
		return mapErr(err)
	})
}

func (r *userRepo) Update(ctx context.Context, userID string, input repository.UpdateUserInput) (*repository.User, error) {
	var out *repository.User
	err := store.Call(ctx, r.timeout, func(ctx context.Context) error {
		var roleStr *string
		if input.Role != nil {
			s := input.Role.String()
			roleStr = &s
		}
		row := r.pool.QueryRow(ctx, `
			UPDATE users SET
				username     = COALESCE($2, username),
				email        = COALESCE($3, email),
				role         = COALESCE($4, role),
				is_staff     = COALESCE($5, is_staff),
				is_superuser = COALESCE($6, is_superuser),
				updated_at   = NOW()
			WHERE id = $1
			RETURNING `+userCols,
			userID, input.Username, input.Email, roleStr, input.IsStaff, input.IsSuperuser,
		)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
			userID, newHash)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *userRepo) Deactivate(ctx context.Context, userID string) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
			userID)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	return r.getWhere(ctx, `id = $1`, userID)
}

func (r *userRepo) GetActiveByID(ctx context.Context, userID string) (*repository.User, error) {
	// Mismo ErrNotFound para inexistente e inactivo.
	return r.getWhere(ctx, `id = $1 AND is_active = TRUE`, userID)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.getWhere(ctx, `email = $1`, email)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	return r.getWhere(ctx, `username = $1`, username)
}

func (r *userRepo) getWhere(ctx context.Context, where string, arg any) (*repository.User, error) {
	var out *repository.User
	err := store.Call(ctx, r.timeout, func(ctx context.Context) error {
		u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg))
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (r *userRepo) List(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var out []repository.User
	err := store.Call(ctx, r.timeout, func(ctx context.Context) error {
		var roleStr *string
		if filter.Role != nil {
			s := filter.Role.String()
			roleStr = &s
		}
		rows, err := r.pool.Query(ctx, `
			SELECT `+userCols+` FROM users
			WHERE ($1::text IS NULL OR role = $1)
			  AND ($2::boolean IS NULL OR is_active = $2)
			ORDER BY created_at, id
			LIMIT $3 OFFSET $4`,
			roleStr, filter.Active, limit, offset,
		)
		if err != nil {
			return mapErr(err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, *u)
		}
		return mapErr(rows.Err())
	})
	return out, err
}
