package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Keypair es el par ed25519 con el que se firman los tokens.
type Keypair struct {
	KID  string
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
}

// GenerateKeypair genera un par ed25519 nuevo con KID derivado de la pubkey.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwt: generate keypair: %w", err)
	}
	return &Keypair{KID: kidFor(pub), Priv: priv, Pub: pub}, nil
}

// KeypairFromSeed deriva el par desde una seed de 32 bytes en base64.
// Permite mantener el mismo par entre reinicios sin un keystore completo.
func KeypairFromSeed(seedB64 string) (*Keypair, error) {
	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, fmt.Errorf("jwt: decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{KID: kidFor(pub), Priv: priv, Pub: pub}, nil
}

// kidFor deriva un KID corto y estable de la clave pública.
func kidFor(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:8])
}
