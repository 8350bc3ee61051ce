package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditSignup             AuditEvent = "signup"
	AuditWalletImported     AuditEvent = "wallet_imported"
	AuditLoginSuccess       AuditEvent = "login_success"
	AuditLoginFailure       AuditEvent = "login_failure"
	AuditBiometricLogin     AuditEvent = "biometric_login"
	AuditBiometricsEnrolled AuditEvent = "biometrics_enrolled"
	AuditLogout             AuditEvent = "logout"
	AuditLogoutWipe         AuditEvent = "logout_wipe"
	AuditExpirationUpdated  AuditEvent = "expiration_updated"
	AuditAccountCreated     AuditEvent = "account_created"
	AuditSecretKeyImported  AuditEvent = "secret_key_imported"
	AuditPayloadSigned      AuditEvent = "payload_signed"
	AuditPhraseRevealed     AuditEvent = "recovery_phrase_revealed"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit entry. Only identifiers and event names are
// logged; passwords, phrases, and key material never reach this path.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}
