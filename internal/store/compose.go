package store

import (
	"context"

	"github.com/dropDatabas3/careid/internal/domain/repository"
)

// Compose arma un Store con el OTPRepository reemplazado, manteniendo los
// usuarios del store base. Permite, por ejemplo, usuarios en PostgreSQL y
// registros OTP en Redis.
func Compose(base Store, otps repository.OTPRepository) Store {
	return &composed{base: base, otps: otps}
}

type composed struct {
	base Store
	otps repository.OTPRepository
}

func (c *composed) Users() repository.UserRepository { return c.base.Users() }
func (c *composed) OTPs() repository.OTPRepository   { return c.otps }
func (c *composed) Ping(ctx context.Context) error   { return c.base.Ping(ctx) }
func (c *composed) Close() error                     { return c.base.Close() }
