// Package auth orquesta login, emisión de tokens y la máquina de estados de
// recuperación de password (request → verify → authorize reset → commit).
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/domain/types"
	jwtx "github.com/dropDatabas3/careid/internal/jwt"
	"github.com/dropDatabas3/careid/internal/metrics"
	"github.com/dropDatabas3/careid/internal/observability/logger"
	"github.com/dropDatabas3/careid/internal/security/otp"
	"github.com/dropDatabas3/careid/internal/security/password"
	"github.com/dropDatabas3/careid/internal/service/identity"
	"github.com/dropDatabas3/careid/internal/store"
)

// Errores del service. Los paths sensibles colapsan causas distintas en el
// mismo error a propósito: nunca se revela si el email existe o cuál de las
// credenciales falló.
var (
	ErrMissingFields    = fmt.Errorf("missing required fields")
	ErrInvalidCreds     = fmt.Errorf("invalid credentials")
	ErrNoPendingRequest = fmt.Errorf("no pending recovery request")
	ErrCodeMismatch     = fmt.Errorf("code mismatch")
	ErrCodeExpired      = fmt.Errorf("code expired")
	ErrInvalidToken     = fmt.Errorf("invalid token")
	ErrTokenIssueFailed = fmt.Errorf("failed to issue token")
)

// TokenPair es el par access/refresh emitido al autenticar.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // segundos hasta que expira el access
}

// UserView es la vista saneada del usuario que acompaña al login.
// Nunca incluye el hash.
type UserView struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     types.Role `json:"role"`
}

// LoginResult agrupa tokens y usuario.
type LoginResult struct {
	User   UserView
	Tokens TokenPair
}

// Service define las operaciones de autenticación y recuperación.
type Service interface {
	Login(ctx context.Context, email, plaintext string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	RequestReset(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, userID string, code int) (resetToken string, err error)
	ResetPassword(ctx context.Context, userID, resetToken, newPassword string) error
}

// Deps contiene las dependencias del service.
type Deps struct {
	Store    store.Store
	Identity identity.Service
	Issuer   *jwtx.Issuer
	OTP      otp.Generator
	OTPCfg   otp.Config
	Notifier Notifier
}

// Notifier es el canal out-of-band que recibe el código generado.
type Notifier interface {
	SendOTP(ctx context.Context, email string, code int, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, email string) error
}

type noopNotifier struct{}

func (noopNotifier) SendOTP(context.Context, string, int, time.Duration) error { return nil }
func (noopNotifier) SendPasswordChanged(context.Context, string) error { return nil }

type service struct {
	deps Deps
}

// New crea el auth service.
func New(deps Deps) Service {
	if deps.OTP == nil {
		deps.OTP = otp.NewGenerator()
	}
	if deps.OTPCfg.CodeTTL == 0 {
		deps.OTPCfg.CodeTTL = otp.DefaultConfig.CodeTTL
	}
	if deps.OTPCfg.TokenTTL == 0 {
		deps.OTPCfg.TokenTTL = otp.DefaultConfig.TokenTTL
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	return &service{deps: deps}
}

func (s *service) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Login"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || plaintext == "" {
		return nil, ErrMissingFields
	}

	// Paso 1: buscar usuario. Inexistente, inactivo y password incorrecto
	// colapsan en el mismo error.
	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("user not found", logger.Email(email))
			metrics.Logins.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCreds
		}
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	if !user.IsActive {
		log.Info("login attempt on inactive account")
		metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCreds
	}

	// Paso 2: verificar password.
	if !password.Verify(plaintext, user.PasswordHash) {
		log.Debug("password check failed")
		metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCreds
	}

	// Paso 3: emitir el par de tokens.
	pair, err := s.issuePair(user)
	if err != nil {
		log.Error("failed to issue token pair", logger.Err(err))
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, ErrTokenIssueFailed
	}

	log.Info("login successful", logger.Role(user.Role.String()))
	metrics.Logins.WithLabelValues("ok").Inc()

	return &LoginResult{
		User: UserView{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
		Tokens: *pair,
	}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Refresh"),
	)

	claims, err := s.deps.Issuer.ParseRefresh(refreshToken)
	if err != nil {
		log.Debug("refresh token rejected")
		metrics.TokenRefreshes.WithLabelValues("invalid_token").Inc()
		return nil, ErrInvalidToken
	}

	// Releer el usuario: una cuenta desactivada no refresca más, aunque el
	// token siga criptográficamente vigente.
	user, err := s.deps.Store.Users().GetActiveByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("refresh for missing or inactive user", logger.UserID(claims.UserID))
			metrics.TokenRefreshes.WithLabelValues("invalid_token").Inc()
			return nil, ErrInvalidToken
		}
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}

	access, exp, err := s.deps.Issuer.IssueAccess(user.ID, user.Username, user.Role)
	if err != nil {
		log.Error("failed to issue access token", logger.Err(err))
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, ErrTokenIssueFailed
	}

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken, // sin rotación: el refresh vive hasta su exp
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("ChangePassword"),
		logger.UserID(userID),
	)

	if userID == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Store.Users().GetActiveByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidCreds
		}
		return err
	}

	if !password.Verify(oldPassword, user.PasswordHash) {
		log.Debug("old password check failed")
		return ErrInvalidCreds
	}

	if err := s.deps.Identity.SetPassword(ctx, userID, newPassword); err != nil {
		return err
	}

	log.Info("password changed")
	s.notifyPasswordChanged(ctx, user.Email)
	return nil
}

func (s *service) issuePair(user *repository.User) (*TokenPair, error) {
	access, exp, err := s.deps.Issuer.IssueAccess(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.deps.Issuer.IssueRefresh(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

// notifyPasswordChanged es best-effort: la entrega nunca voltea la operación.
func (s *service) notifyPasswordChanged(ctx context.Context, email string) {
	if err := s.deps.Notifier.SendPasswordChanged(ctx, email); err != nil {
		logger.From(ctx).Warn("failed to send password-changed notice",
			logger.Component("auth"), logger.Err(err), logger.Email(email))
	}
}
