package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/metrics"
	"github.com/dropDatabas3/careid/internal/observability/logger"
	"github.com/dropDatabas3/careid/internal/security/otp"
	"github.com/dropDatabas3/careid/internal/service/identity"
)

// RequestReset inicia (o reinicia) el flujo de recuperación para el email
// dado. Si el email no corresponde a ninguna cuenta activa retorna éxito
// igual: la respuesta nunca confirma la existencia de una cuenta.
func (s *service) RequestReset(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("RequestReset"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrMissingFields
	}

	// Paso 1: resolver el usuario. Desconocido o inactivo → éxito silencioso.
	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("reset requested for unknown email", logger.Email(email))
			metrics.RecoverySteps.WithLabelValues("request", "unknown_email").Inc()
			return nil
		}
		metrics.RecoverySteps.WithLabelValues("request", "error").Inc()
		return err
	}
	if !user.IsActive {
		log.Debug("reset requested for inactive account", logger.UserID(user.ID))
		metrics.RecoverySteps.WithLabelValues("request", "unknown_email").Inc()
		return nil
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 2: generar el código y reemplazar cualquier solicitud previa.
	// Una nueva solicitud invalida la anterior por completo.
	code, err := s.deps.OTP.NewCode()
	if err != nil {
		metrics.RecoverySteps.WithLabelValues("request", "error").Inc()
		return err
	}

	now := time.Now().UTC()
	rec := &repository.OTPRecord{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Code:          code,
		CodeExpiresAt: now.Add(s.deps.OTPCfg.CodeTTL),
		CreatedAt:     now,
	}

	err = s.deps.Store.OTPs().Exclusive(ctx, user.ID, func(ctx context.Context) error {
		return s.deps.Store.OTPs().Replace(ctx, rec)
	})
	if err != nil {
		log.Error("failed to persist recovery request", logger.Err(err))
		metrics.RecoverySteps.WithLabelValues("request", "error").Inc()
		return err
	}

	// Paso 3: entregar el código fuera de banda. La falla de entrega no
	// revierte el registro ni se revela al caller.
	if err := s.deps.Notifier.SendOTP(ctx, user.Email, code, s.deps.OTPCfg.CodeTTL); err != nil {
		log.Warn("failed to deliver recovery code", logger.Err(err))
	}

	log.Info("recovery request registered")
	metrics.RecoverySteps.WithLabelValues("request", "ok").Inc()
	return nil
}

// VerifyCode valida el código enviado y, si coincide, emite el reset token.
// El token en claro se retorna una única vez; solo su hash queda persistido.
// Cualquier código incorrecto o vencido purga la solicitud: un solo intento.
func (s *service) VerifyCode(ctx context.Context, userID string, code int) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("VerifyCode"),
		logger.UserID(userID),
	)

	if userID == "" {
		return "", ErrMissingFields
	}

	var token string
	err := s.deps.Store.OTPs().Exclusive(ctx, userID, func(ctx context.Context) error {
		// Paso 1: debe existir una solicitud pendiente.
		rec, err := s.deps.Store.OTPs().GetByUserID(ctx, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrNoPendingRequest
			}
			return err
		}

		// Paso 2: un código ya verificado está consumido; el registro sigue
		// vivo solo para validar el token ya emitido.
		if rec.ResetTokenHash != "" {
			return ErrNoPendingRequest
		}

		// Paso 3: expiración antes que coincidencia. Un código vencido no
		// valida aunque los dígitos coincidan.
		now := time.Now().UTC()
		if rec.CodeExpired(now) {
			if derr := s.deps.Store.OTPs().Delete(ctx, userID); derr != nil {
				log.Warn("failed to purge expired recovery request", logger.Err(derr))
			}
			return ErrCodeExpired
		}
		if rec.Code != code {
			if derr := s.deps.Store.OTPs().Delete(ctx, userID); derr != nil {
				log.Warn("failed to purge recovery request after mismatch", logger.Err(derr))
			}
			return ErrCodeMismatch
		}

		// Paso 4: acuñar el reset token y persistir solo el hash, con su
		// propia expiración contada desde acá.
		raw, err := s.deps.OTP.NewResetToken()
		if err != nil {
			return err
		}
		expiresAt := now.Add(s.deps.OTPCfg.TokenTTL)
		if err := s.deps.Store.OTPs().SetResetTokenHash(ctx, userID, otp.HashToken(raw), expiresAt); err != nil {
			return err
		}
		token = raw
		return nil
	})

	switch {
	case err == nil:
		log.Info("recovery code verified")
		metrics.RecoverySteps.WithLabelValues("verify", "ok").Inc()
		return token, nil
	case isRecoveryReject(err):
		log.Debug("recovery code rejected", logger.String("reason", err.Error()))
		metrics.RecoverySteps.WithLabelValues("verify", "rejected").Inc()
		return "", err
	default:
		log.Error("recovery verification failed", logger.Err(err))
		metrics.RecoverySteps.WithLabelValues("verify", "error").Inc()
		return "", err
	}
}

// ResetPassword consuma la recuperación: valida el reset token, purga la
// solicitud y fija el password nuevo. El token es de un solo uso aun si la
// actualización posterior falla.
func (s *service) ResetPassword(ctx context.Context, userID, resetToken, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("ResetPassword"),
		logger.UserID(userID),
	)

	if userID == "" || resetToken == "" || newPassword == "" {
		return ErrMissingFields
	}

	var email string
	err := s.deps.Store.OTPs().Exclusive(ctx, userID, func(ctx context.Context) error {
		// Paso 1: la solicitud debe existir y estar verificada.
		rec, err := s.deps.Store.OTPs().GetByUserID(ctx, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidToken
			}
			return err
		}
		if rec.TokenExpired(time.Now().UTC()) {
			if derr := s.deps.Store.OTPs().Delete(ctx, userID); derr != nil {
				log.Warn("failed to purge stale recovery request", logger.Err(derr))
			}
			return ErrInvalidToken
		}
		if !otp.TokenMatches(resetToken, rec.ResetTokenHash) {
			return ErrInvalidToken
		}

		// Paso 2: purgar antes de tocar el password. Si el update falla el
		// token ya no sirve y el flujo vuelve a empezar desde cero.
		if err := s.deps.Store.OTPs().Delete(ctx, userID); err != nil {
			return err
		}

		// Paso 3: aplicar política y persistir el password nuevo.
		if err := s.deps.Identity.SetPassword(ctx, userID, newPassword); err != nil {
			return err
		}

		if u, uerr := s.deps.Store.Users().GetByID(ctx, userID); uerr == nil {
			email = u.Email
		}
		return nil
	})

	switch {
	case err == nil:
		log.Info("password reset completed")
		metrics.RecoverySteps.WithLabelValues("reset", "ok").Inc()
		if email != "" {
			s.notifyPasswordChanged(ctx, email)
		}
		return nil
	case isRecoveryReject(err):
		log.Debug("password reset rejected")
		metrics.RecoverySteps.WithLabelValues("reset", "rejected").Inc()
		return err
	default:
		log.Error("password reset failed", logger.Err(err))
		metrics.RecoverySteps.WithLabelValues("reset", "error").Inc()
		return err
	}
}

func isRecoveryReject(err error) bool {
	for _, sentinel := range []error{
		ErrNoPendingRequest, ErrCodeMismatch, ErrCodeExpired, ErrInvalidToken,
		identity.ErrWeakPassword,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
