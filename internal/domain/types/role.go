// Package types contiene los tipos de dominio compartidos.
package types

import "strings"

// Role es el rol de un usuario dentro del hospital.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleStaff     Role = "staff"
	RoleSuperuser Role = "superuser"
)

// PermissionFlags son los flags derivados del rol.
type PermissionFlags struct {
	IsStaff     bool
	IsSuperuser bool
}

// roleFlags es la única fuente de verdad rol -> flags.
// Reemplaza los if/elif duplicados por rol en create y update.
var roleFlags = map[Role]PermissionFlags{
	RolePatient:   {},
	RoleDoctor:    {},
	RoleStaff:     {IsStaff: true},
	RoleSuperuser: {IsStaff: true, IsSuperuser: true},
}

// Valid indica si el rol pertenece al set permitido.
func (r Role) Valid() bool {
	_, ok := roleFlags[r]
	return ok
}

// Flags retorna los permission flags derivados del rol.
// Un rol desconocido no tiene flags elevados.
func (r Role) Flags() PermissionFlags {
	return roleFlags[r]
}

func (r Role) String() string { return string(r) }

// ParseRole normaliza un string a Role.
// Si el valor no es reconocido retorna (RolePatient, false): la política de
// fallback vs error la decide el caller (ver identity.Config.StrictRoles).
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return RolePatient, false
}
