package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package to avoid import cycles
// between services and the serving layer.

var (
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careid_logins_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"}) // ok | invalid_credentials | error

	RecoverySteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careid_recovery_steps_total",
		Help: "Pasos del flujo de recuperación de password por resultado",
	}, []string{"step", "result"}) // step: request|verify|reset

	TokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careid_token_refreshes_total",
		Help: "Intercambios de refresh token por resultado",
	}, []string{"result"}) // ok | invalid_token | error
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Logins, RecoverySteps, TokenRefreshes} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
