package otp

import (
	"strings"
	"testing"
)

func TestNewCode_Range(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 500; i++ {
		code, err := g.NewCode()
		if err != nil {
			t.Fatalf("NewCode err: %v", err)
		}
		if code < CodeMin || code > CodeMax {
			t.Fatalf("code %d out of [%d,%d]", code, CodeMin, CodeMax)
		}
	}
}

func TestNewResetToken(t *testing.T) {
	g := NewGenerator()
	a, err := g.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken err: %v", err)
	}
	b, err := g.NewResetToken()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
	// 32 bytes hex = 64 chars, bien por encima del mínimo de 20 bytes
	if len(a) != 64 {
		t.Fatalf("token length = %d, want 64", len(a))
	}
	if strings.ToLower(a) != a {
		t.Fatalf("token must be lowercase hex")
	}
}

func TestTokenMatches(t *testing.T) {
	g := NewGenerator()
	raw, err := g.NewResetToken()
	if err != nil {
		t.Fatal(err)
	}
	h := HashToken(raw)
	if h == raw {
		t.Fatalf("stored hash must not equal raw token")
	}
	if !TokenMatches(raw, h) {
		t.Fatalf("token should match its own hash")
	}
	if TokenMatches(raw+"x", h) {
		t.Fatalf("tampered token accepted")
	}
	if TokenMatches("", h) || TokenMatches(raw, "") {
		t.Fatalf("empty token or hash accepted")
	}
}
