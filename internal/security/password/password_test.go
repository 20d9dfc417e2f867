package password

import (
	"strings"
	"testing"
)

// Params chicos para que los tests no quemen CPU.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(testParams, "Abcd1234")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC format: %q", phc)
	}
	if strings.Contains(phc, "Abcd1234") {
		t.Fatalf("plaintext leaked into hash")
	}
	if !Verify("Abcd1234", phc) {
		t.Fatalf("Verify should accept the original password")
	}
	if Verify("abcd1234", phc) {
		t.Fatalf("Verify should reject a different password")
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	a, err := Hash(testParams, "Abcd1234")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash(testParams, "Abcd1234")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ (random salt)")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	for _, phc := range []string{"", "garbage", "$argon2id$v=18$m=8,t=1,p=1$YWJj$YWJj", "$bcrypt$x"} {
		if Verify("whatever", phc) {
			t.Fatalf("Verify accepted malformed PHC %q", phc)
		}
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := NewDefaultPolicy(DefaultBlacklist())

	if ok, _ := p.Validate("Abcd1234"); !ok {
		t.Fatalf("valid password rejected")
	}
	if ok, reasons := p.Validate("Ab1"); ok || len(reasons) == 0 {
		t.Fatalf("short password accepted")
	}
	if ok, reasons := p.Validate("12345678"); ok {
		t.Fatalf("purely numeric password accepted")
	} else if !contains(reasons, "entirely_numeric") && !contains(reasons, "too_common") {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
	if ok, reasons := p.Validate("password1"); ok || !contains(reasons, "too_common") {
		t.Fatalf("common password accepted: %v", reasons)
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
