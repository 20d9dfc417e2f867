package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/careid/internal/domain/types"
	"github.com/dropDatabas3/careid/internal/security/password"
	"github.com/dropDatabas3/careid/internal/store/memory"
)

// Params chicos para que los tests no quemen CPU.
var testHash = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func newService(t *testing.T, strict bool) (Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := New(Deps{
		Users:       st.Users(),
		Policy:      password.NewDefaultPolicy(password.DefaultBlacklist()),
		Hash:        testHash,
		StrictRoles: strict,
	})
	return svc, st
}

func TestCreateUser_HashesAndDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1",
		Email:    "Pat1@X.com",
		Password: "Abcd1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "pat1@x.com", u.Email, "email normalized to lowercase")
	require.Equal(t, types.RolePatient, u.Role, "role defaults to patient")
	require.True(t, u.IsActive)
	require.False(t, u.IsStaff)
	require.False(t, u.IsSuperuser)

	// El hash verifica el plaintext original pero no lo contiene.
	require.NotEqual(t, "Abcd1234", u.PasswordHash)
	require.NotContains(t, u.PasswordHash, "Abcd1234")
	require.True(t, password.Verify("Abcd1234", u.PasswordHash))
}

func TestCreateUser_RoleFlags(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	staff, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "staff1", Email: "staff1@x.com", Password: "Abcd1234", Role: "staff",
	})
	require.NoError(t, err)
	require.True(t, staff.IsStaff)
	require.False(t, staff.IsSuperuser)

	root, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "root1", Email: "root1@x.com", Password: "Abcd1234", Role: "superuser",
	})
	require.NoError(t, err)
	require.True(t, root.IsStaff)
	require.True(t, root.IsSuperuser)
}

func TestCreateUser_UnknownRolePolicy(t *testing.T) {
	ctx := context.Background()

	// Default: fallback a patient.
	svc, _ := newService(t, false)
	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "u1", Email: "u1@x.com", Password: "Abcd1234", Role: "wizard",
	})
	require.NoError(t, err)
	require.Equal(t, types.RolePatient, u.Role)

	// Strict: error.
	strict, _ := newService(t, true)
	_, err = strict.CreateUser(ctx, CreateUserInput{
		Username: "u2", Email: "u2@x.com", Password: "Abcd1234", Role: "wizard",
	})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestCreateUser_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	_, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "pat1@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "other@x.com", Password: "Xyzw9876",
	})
	require.ErrorIs(t, err, ErrDuplicateIdentifier, "duplicate username")

	_, err = svc.CreateUser(ctx, CreateUserInput{
		Username: "other", Email: "pat1@x.com", Password: "Xyzw9876",
	})
	require.ErrorIs(t, err, ErrDuplicateIdentifier, "duplicate email")
}

func TestCreateUser_WeakPasswords(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	for _, pw := range []string{"short", "123456789", "password1"} {
		_, err := svc.CreateUser(ctx, CreateUserInput{
			Username: "u", Email: "u@x.com", Password: pw,
		})
		require.ErrorIs(t, err, ErrWeakPassword, "password %q", pw)
	}
}

func TestUpdateUser_RolePromotionAndDemotion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "pat1@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)

	staffRole := "staff"
	promoted, err := svc.UpdateUser(ctx, u.ID, UpdateUserInput{Role: &staffRole})
	require.NoError(t, err)
	require.Equal(t, types.RoleStaff, promoted.Role)
	require.True(t, promoted.IsStaff)
	require.False(t, promoted.IsSuperuser)

	patientRole := "patient"
	demoted, err := svc.UpdateUser(ctx, u.ID, UpdateUserInput{Role: &patientRole})
	require.NoError(t, err)
	require.Equal(t, types.RolePatient, demoted.Role)
	require.False(t, demoted.IsStaff, "demotion clears is_staff")
	require.False(t, demoted.IsSuperuser)
}

func TestUpdateUser_PartialAndErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "pat1@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{
		Username: "pat2", Email: "pat2@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)

	email := "newmail@x.com"
	upd, err := svc.UpdateUser(ctx, u.ID, UpdateUserInput{Email: &email})
	require.NoError(t, err)
	require.Equal(t, "newmail@x.com", upd.Email)
	require.Equal(t, "pat1", upd.Username, "username untouched")

	taken := "pat2@x.com"
	_, err = svc.UpdateUser(ctx, u.ID, UpdateUserInput{Email: &taken})
	require.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = svc.UpdateUser(ctx, "ghost", UpdateUserInput{Email: &email})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivate_ActiveLookupCollapses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, false)

	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "pat1@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(ctx, u.ID))
	require.NoError(t, svc.DeactivateUser(ctx, u.ID), "idempotent")

	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	_, errInactive := svc.GetActiveByID(ctx, u.ID)
	require.ErrorIs(t, errInactive, ErrNotFound)

	_, errMissing := svc.GetActiveByID(ctx, "ghost")
	require.Equal(t, errInactive, errMissing, "inactive vs missing must be indistinguishable")
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, false)

	u, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "pat1", Email: "pat1@x.com", Password: "Abcd1234",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.SetPassword(ctx, u.ID, "123"), ErrWeakPassword)
	require.ErrorIs(t, svc.SetPassword(ctx, "ghost", "NewPass123"), ErrNotFound)

	require.NoError(t, svc.SetPassword(ctx, u.ID, "NewPass123"))
	stored, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, password.Verify("NewPass123", stored.PasswordHash))
	require.False(t, password.Verify("Abcd1234", stored.PasswordHash))
}
