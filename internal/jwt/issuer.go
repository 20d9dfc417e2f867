// Package jwt emite y valida los tokens de sesión firmados con EdDSA.
//
// Access y refresh son JWTs autocontenidos discriminados por el claim "typ":
// validar un token no requiere ningún round-trip al store.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/types"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	typAccess  = "access"
	typRefresh = "refresh"
)

// ErrInvalidToken cubre firma inválida, expiración, nbf futuro, issuer o typ
// incorrectos. No se distingue la causa hacia afuera.
var ErrInvalidToken = errors.New("invalid token")

// Claims son los claims de negocio extraídos de un token válido.
type Claims struct {
	UserID   string
	Username string
	Role     types.Role
}

// Issuer firma y valida tokens con el keypair activo.
type Issuer struct {
	Iss        string
	Keys       *Keypair
	AccessTTL  time.Duration // ej: 15m
	RefreshTTL time.Duration // ej: 720h
}

func NewIssuer(iss string, kp *Keypair) *Issuer {
	return &Issuer{
		Iss:        iss,
		Keys:       kp,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// IssueAccess emite un access token para el usuario.
func (i *Issuer) IssueAccess(userID, username string, role types.Role) (string, time.Time, error) {
	return i.sign(typAccess, userID, username, role, i.AccessTTL)
}

// IssueRefresh emite un refresh token de vida larga.
func (i *Issuer) IssueRefresh(userID, username string, role types.Role) (string, time.Time, error) {
	return i.sign(typRefresh, userID, username, role, i.RefreshTTL)
}

func (i *Issuer) sign(typ, userID, username string, role types.Role, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtv5.MapClaims{
		"iss":      i.Iss,
		"sub":      userID,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      exp.Unix(),
		"typ":      typ,
		"username": username,
		"role":     role.String(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccess valida un access token y devuelve sus claims de negocio.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, typAccess)
}

// ParseRefresh valida un refresh token y devuelve sus claims de negocio.
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, typRefresh)
}

func (i *Issuer) parse(token, wantTyp string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return ed25519.PublicKey(i.Keys.Pub), nil
	}

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); i.Iss != "" && iss != i.Iss {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	roleStr, _ := claims["role"].(string)
	role, _ := types.ParseRole(roleStr)

	return &Claims{UserID: sub, Username: username, Role: role}, nil
}
