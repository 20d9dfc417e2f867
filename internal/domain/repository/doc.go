// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria, Redis).
//
// Las implementaciones concretas viven en internal/store/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────┐
//	│        service/identity, service/auth       │
//	└─────────────────────────────────────────────┘
//	                      │
//	                      ▼
//	┌─────────────────────────────────────────────┐
//	│       domain/repository (interfaces)        │
//	│        UserRepository, OTPRepository        │
//	└─────────────────────────────────────────────┘
//	                      │
//	        ┌─────────────┼─────────────┐
//	        ▼             ▼             ▼
//	┌───────────┐  ┌───────────┐  ┌───────────┐
//	│  store/   │  │  store/   │  │  store/   │
//	│    pg     │  │  memory   │  │ redisotp  │
//	└───────────┘  └───────────┘  └───────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
