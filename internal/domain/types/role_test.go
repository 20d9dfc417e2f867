package types

import "testing"

func TestRoleFlags(t *testing.T) {
	cases := []struct {
		role      Role
		staff     bool
		superuser bool
	}{
		{RolePatient, false, false},
		{RoleDoctor, false, false},
		{RoleStaff, true, false},
		{RoleSuperuser, true, true},
		{Role("ghost"), false, false},
	}
	for _, c := range cases {
		f := c.role.Flags()
		if f.IsStaff != c.staff || f.IsSuperuser != c.superuser {
			t.Fatalf("role %q: got staff=%v superuser=%v, want staff=%v superuser=%v",
				c.role, f.IsStaff, f.IsSuperuser, c.staff, c.superuser)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("  Doctor "); !ok || r != RoleDoctor {
		t.Fatalf("ParseRole(Doctor) = %q, %v", r, ok)
	}
	if r, ok := ParseRole("admin"); ok || r != RolePatient {
		t.Fatalf("unknown role should fall back to patient: got %q, %v", r, ok)
	}
	if r, ok := ParseRole(""); ok || r != RolePatient {
		t.Fatalf("empty role should fall back to patient: got %q, %v", r, ok)
	}
}
