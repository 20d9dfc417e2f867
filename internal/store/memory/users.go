package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/repository"
)

type userRepo struct {
	mu         sync.RWMutex
	byID       map[string]*repository.User
	byEmail    map[string]string // email -> id
	byUsername map[string]string // username -> id
}

func newUserRepo() *userRepo {
	return &userRepo{
		byID:       map[string]*repository.User{},
		byEmail:    map[string]string{},
		byUsername: map[string]string{},
	}
}

// clone evita que los callers muten el estado interno del repo.
func clone(u *repository.User) *repository.User {
	cp := *u
	return &cp
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byEmail[u.Email]; dup {
		return repository.ErrConflict
	}
	if _, dup := r.byUsername[u.Username]; dup {
		return repository.ErrConflict
	}
	if _, dup := r.byID[u.ID]; dup {
		return repository.ErrConflict
	}

	cp := clone(u)
	r.byID[cp.ID] = cp
	r.byEmail[cp.Email] = cp.ID
	r.byUsername[cp.Username] = cp.ID
	return nil
}

func (r *userRepo) Update(ctx context.Context, userID string, input repository.UpdateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	// Chequear colisiones antes de tocar nada: el update es todo o nada.
	if input.Username != nil && *input.Username != cur.Username {
		if owner, dup := r.byUsername[*input.Username]; dup && owner != userID {
			return nil, repository.ErrConflict
		}
	}
	if input.Email != nil && *input.Email != cur.Email {
		if owner, dup := r.byEmail[*input.Email]; dup && owner != userID {
			return nil, repository.ErrConflict
		}
	}

	if input.Username != nil && *input.Username != cur.Username {
		delete(r.byUsername, cur.Username)
		cur.Username = *input.Username
		r.byUsername[cur.Username] = userID
	}
	if input.Email != nil && *input.Email != cur.Email {
		delete(r.byEmail, cur.Email)
		cur.Email = *input.Email
		r.byEmail[cur.Email] = userID
	}
	if input.Role != nil {
		cur.Role = *input.Role
	}
	if input.IsStaff != nil {
		cur.IsStaff = *input.IsStaff
	}
	if input.IsSuperuser != nil {
		cur.IsSuperuser = *input.IsSuperuser
	}
	cur.UpdatedAt = time.Now().UTC()

	return clone(cur), nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.PasswordHash = newHash
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepo) Deactivate(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	// Idempotente: desactivar dos veces no es error.
	cur.IsActive = false
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (r *userRepo) GetActiveByID(ctx context.Context, userID string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok || !u.IsActive {
		// Mismo not-found para "no existe" y "existe inactivo".
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *userRepo) List(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []repository.User
	for _, u := range r.byID {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		out = append(out, *clone(u))
	}
	// Orden estable para paginar.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []repository.User{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}
