// Package authz es la política de acceso por rol: funciones puras, sin
// dependencias, consumidas por la capa HTTP antes de llamar a los services.
package authz

import (
	"errors"

	"github.com/dropDatabas3/careid/internal/domain/types"
)

// ErrPolicyDenied es lo que la capa de transporte traduce a 403.
var ErrPolicyDenied = errors.New("policy denied")

// Action son las acciones sobre el recurso identidad.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionUpdate   Action = "update"
	ActionCreate   Action = "create"
	ActionDelete   Action = "delete"
)

// staffOnly marca las acciones reservadas a staff/superuser; el resto admite
// además al dueño del recurso.
var staffOnly = map[Action]bool{
	ActionList:   true,
	ActionCreate: true,
	ActionDelete: true,
}

var ownerAllowed = map[Action]bool{
	ActionRetrieve: true,
	ActionUpdate:   true,
}

// Can decide si el requester puede ejecutar la acción sobre el recurso del
// dueño dado. requesterID vacío significa no autenticado: siempre deny.
func Can(role types.Role, action Action, resourceOwnerID, requesterID string) bool {
	if requesterID == "" {
		return false
	}
	elevated := role == types.RoleStaff || role == types.RoleSuperuser

	switch {
	case staffOnly[action]:
		return elevated
	case ownerAllowed[action]:
		return elevated || (resourceOwnerID != "" && resourceOwnerID == requesterID)
	default:
		return false
	}
}

// Require es Can en forma de error, para encadenar en services.
func Require(role types.Role, action Action, resourceOwnerID, requesterID string) error {
	if !Can(role, action, resourceOwnerID, requesterID) {
		return ErrPolicyDenied
	}
	return nil
}
