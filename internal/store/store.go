// Package store define el contrato de persistencia y el registro de adapters.
//
// Los adapters concretos (pg, memory) se registran en init() y se abren por
// nombre de driver, igual que los drivers de database/sql.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/repository"
)

// Store agrupa los repositorios del credential store.
type Store interface {
	Users() repository.UserRepository
	OTPs() repository.OTPRepository
	Ping(ctx context.Context) error
	Close() error
}

// Config es la configuración de apertura de un adapter.
type Config struct {
	Driver string
	DSN    string

	// CallTimeout limita cada llamada individual al store.
	// 0 = default del adapter (3s).
	CallTimeout time.Duration

	MaxOpenConns int
	MaxIdleConns int
}

// Adapter abre un Store concreto.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg Config) (Store, error)
}

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]Adapter{}
)

// Register registra un adapter por nombre. Pánico en doble registro,
// igual que database/sql.
func Register(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	if _, dup := adapters[a.Name()]; dup {
		panic("store: Register called twice for adapter " + a.Name())
	}
	adapters[a.Name()] = a
}

// Open abre el store del driver configurado.
func Open(ctx context.Context, cfg Config) (Store, error) {
	adaptersMu.RLock()
	a, ok := adapters[cfg.Driver]
	adaptersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Driver, Drivers())
	}
	return a.Open(ctx, cfg)
}

// Drivers lista los adapters registrados.
func Drivers() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	names := make([]string, 0, len(adapters))
	for n := range adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
