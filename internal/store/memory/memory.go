// Package memory implementa el store en memoria.
//
// Pensado para desarrollo y tests: los usuarios viven en mapas indexados y
// los registros OTP en un go-cache con TTL, así la expiración dura del
// código queda cubierta incluso sin sweeper.
package memory

import (
	"context"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/store"
)

func init() {
	store.Register(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	return New(), nil
}

// Store es el store en memoria. Exportado para que los tests de services
// lo construyan directo, sin pasar por el registry.
type Store struct {
	users *userRepo
	otps  *otpRepo
}

// New crea un store en memoria vacío.
func New() *Store {
	locks := store.NewKeyedMutex()
	return &Store{
		users: newUserRepo(),
		otps:  newOTPRepo(locks),
	}
}

func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) OTPs() repository.OTPRepository   { return s.otps }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }
