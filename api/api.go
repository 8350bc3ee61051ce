// Package api exposes the credential manager over a local REST interface for
// the wallet UI. Every transition returns the resulting authentication
// status so the UI never has to poll after acting.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/freighterhq/freighter/auth"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	manager *auth.Manager
	audit   *auditLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// New creates a new API instance over the authentication manager.
func New(manager *auth.Manager, opts ...Option) *API {
	a := &API{manager: manager}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/auth/status", a.GetStatus)
	r.Post("/auth/signup", a.SignUp)
	r.Post("/auth/import", a.ImportWallet)
	r.Post("/auth/signin", a.SignIn)
	r.Post("/auth/signin/biometrics", a.SignInWithBiometrics)
	r.Post("/auth/biometrics", a.EnrollBiometrics)
	r.Post("/auth/signout", a.SignOut)
	r.Post("/auth/expiration", a.UpdateExpiration)
	r.Post("/auth/error/clear", a.ClearError)
	r.Post("/auth/recovery-phrase", a.RevealRecoveryPhrase)

	r.Get("/accounts", a.ListAccounts)
	r.Post("/accounts", a.CreateAccount)
	r.Post("/accounts/import", a.ImportSecretKey)
	r.Put("/accounts/{publicKey}/name", a.RenameAccount)
	r.Post("/accounts/{publicKey}/select", a.SelectAccount)

	r.Post("/sign", a.SignPayload)

	return r
}
