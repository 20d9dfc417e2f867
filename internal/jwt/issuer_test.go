package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/types"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return NewIssuer("careid-test", kp)
}

func TestIssueAndParseAccess(t *testing.T) {
	iss := newTestIssuer(t)

	tok, exp, err := iss.IssueAccess("u-1", "pat1", types.RolePatient)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("exp in the past: %v", exp)
	}

	claims, err := iss.ParseAccess(tok)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UserID != "u-1" || claims.Username != "pat1" || claims.Role != types.RolePatient {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTypDiscrimination(t *testing.T) {
	iss := newTestIssuer(t)

	access, _, err := iss.IssueAccess("u-1", "pat1", types.RolePatient)
	if err != nil {
		t.Fatal(err)
	}
	refresh, _, err := iss.IssueRefresh("u-1", "pat1", types.RolePatient)
	if err != nil {
		t.Fatal(err)
	}

	// Un access token no sirve para refrescar, ni al revés.
	if _, err := iss.ParseRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := iss.ParseAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
	if _, err := iss.ParseRefresh(refresh); err != nil {
		t.Fatalf("valid refresh rejected: %v", err)
	}
}

func TestParse_RejectsGarbageAndWrongKey(t *testing.T) {
	iss := newTestIssuer(t)

	if _, err := iss.ParseAccess("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}

	// Token firmado por otro keypair.
	other := newTestIssuer(t)
	tok, _, err := other.IssueAccess("u-1", "pat1", types.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature accepted: %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	iss := newTestIssuer(t)
	iss.AccessTTL = -2 * time.Minute // más allá del leeway de 30s

	tok, _, err := iss.IssueAccess("u-1", "pat1", types.RolePatient)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	a := newTestIssuer(t)
	b := NewIssuer("someone-else", a.Keys)

	tok, _, err := b.IssueAccess("u-1", "pat1", types.RolePatient)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong issuer accepted: %v", err)
	}
}

func TestKeypairFromSeed_Deterministic(t *testing.T) {
	seed := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=" // 32 zero bytes
	a, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	b, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if a.KID != b.KID {
		t.Fatalf("same seed must derive same KID: %s vs %s", a.KID, b.KID)
	}
	if _, err := KeypairFromSeed("c2hvcnQ="); err == nil {
		t.Fatalf("short seed accepted")
	}
}
