// Package otp genera las credenciales del flujo de recuperación: el código
// numérico de un solo uso y el reset token que lo reemplaza tras verificar.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const (
	// CodeMin y CodeMax delimitan el código de 4 dígitos, ambos inclusive.
	CodeMin = 1000
	CodeMax = 9999

	// resetTokenBytes es la entropía del reset token (el mínimo aceptado
	// es 20 bytes).
	resetTokenBytes = 32
)

// Generator produce códigos y reset tokens. Es la seam para inyectar valores
// deterministas en tests.
type Generator interface {
	NewCode() (int, error)
	NewResetToken() (string, error)
}

// Config agrupa los TTLs del flujo.
type Config struct {
	CodeTTL  time.Duration
	TokenTTL time.Duration
}

// DefaultConfig son los TTLs por defecto: código de 10 minutos, reset token
// de 15 contados desde la verificación.
var DefaultConfig = Config{CodeTTL: 10 * time.Minute, TokenTTL: 15 * time.Minute}

type randomGenerator struct{}

// NewGenerator retorna el generador basado en crypto/rand.
func NewGenerator() Generator {
	return randomGenerator{}
}

// NewCode genera un código uniforme en [1000, 9999].
func (randomGenerator) NewCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return 0, fmt.Errorf("otp: generate code: %w", err)
	}
	return CodeMin + int(n.Int64()), nil
}

// NewResetToken genera material de clave independiente del código,
// hex-encoded.
func (randomGenerator) NewResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("otp: generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken devuelve sha256(token) en hex; es lo único que se persiste.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compara un token en claro contra el hash persistido en
// tiempo constante.
func TokenMatches(raw, storedHash string) bool {
	if raw == "" || storedHash == "" {
		return false
	}
	h := HashToken(raw)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
