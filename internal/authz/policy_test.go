package authz

import (
	"testing"

	"github.com/dropDatabas3/careid/internal/domain/types"
)

func TestCan_Matrix(t *testing.T) {
	cases := []struct {
		name      string
		role      types.Role
		action    Action
		owner     string
		requester string
		want      bool
	}{
		{"patient cannot list", types.RolePatient, ActionList, "", "u1", false},
		{"doctor cannot list", types.RoleDoctor, ActionList, "", "u1", false},
		{"staff can list", types.RoleStaff, ActionList, "", "u1", true},
		{"superuser can list", types.RoleSuperuser, ActionList, "", "u1", true},

		{"patient retrieves own record", types.RolePatient, ActionRetrieve, "u1", "u1", true},
		{"patient cannot retrieve others", types.RolePatient, ActionRetrieve, "u2", "u1", false},
		{"doctor updates own record", types.RoleDoctor, ActionUpdate, "u1", "u1", true},
		{"doctor cannot update others", types.RoleDoctor, ActionUpdate, "u2", "u1", false},
		{"staff retrieves any record", types.RoleStaff, ActionRetrieve, "u2", "u1", true},
		{"staff updates any record", types.RoleStaff, ActionUpdate, "u2", "u1", true},

		{"patient cannot create", types.RolePatient, ActionCreate, "", "u1", false},
		{"patient cannot delete", types.RolePatient, ActionDelete, "u1", "u1", false},
		{"superuser can create", types.RoleSuperuser, ActionCreate, "", "u1", true},
		{"superuser can delete", types.RoleSuperuser, ActionDelete, "u2", "u1", true},

		{"unauthenticated denied everything", types.RoleSuperuser, ActionList, "", "", false},
		{"unauthenticated denied own lookup", types.RolePatient, ActionRetrieve, "u1", "", false},

		{"unknown action denied", types.RoleSuperuser, Action("export"), "", "u1", false},
		{"empty owner does not match requester", types.RolePatient, ActionRetrieve, "", "u1", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Can(c.role, c.action, c.owner, c.requester); got != c.want {
				t.Fatalf("Can(%s, %s, %q, %q) = %v, want %v",
					c.role, c.action, c.owner, c.requester, got, c.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	if err := Require(types.RoleStaff, ActionList, "", "u1"); err != nil {
		t.Fatalf("staff list: unexpected error %v", err)
	}
	if err := Require(types.RolePatient, ActionList, "", "u1"); err != ErrPolicyDenied {
		t.Fatalf("patient list: want ErrPolicyDenied, got %v", err)
	}
}
