package api

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (a *API) statusResponse() StatusResponse {
	cur := a.manager.Current()
	return StatusResponse{Status: string(cur.Status), Error: cur.Err}
}

// GetStatus handles GET /auth/status.
func (a *API) GetStatus(w http.ResponseWriter, r *http.Request) {
	a.manager.CheckSessionValidity()
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// SignUp handles POST /auth/signup.
func (a *API) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	phrase, err := a.manager.SignUp(req.Password)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditSignup, r)
	writeJSON(w, http.StatusCreated, SignUpResponse{
		RecoveryPhrase: phrase,
		Status:         string(a.manager.Status()),
	})
}

// ImportWallet handles POST /auth/import.
func (a *API) ImportWallet(w http.ResponseWriter, r *http.Request) {
	var req ImportWalletRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" || req.RecoveryPhrase == "" {
		writeError(w, http.StatusBadRequest, "password and recoveryPhrase are required")
		return
	}

	if err := a.manager.ImportWallet(req.Password, req.RecoveryPhrase); err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditWalletImported, r)
	writeJSON(w, http.StatusCreated, a.statusResponse())
}

// SignIn handles POST /auth/signin.
func (a *API) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := a.manager.SignIn(req.Password); err != nil {
		a.audit.log(AuditLoginFailure, r)
		mapError(w, err)
		return
	}
	a.audit.log(AuditLoginSuccess, r)
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// SignInWithBiometrics handles POST /auth/signin/biometrics.
func (a *API) SignInWithBiometrics(w http.ResponseWriter, r *http.Request) {
	var req BiometricSignInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	message := req.Message
	if message == "" {
		message = "Unlock your wallet"
	}

	if err := a.manager.SignInWithBiometrics(message); err != nil {
		a.audit.log(AuditLoginFailure, r)
		mapError(w, err)
		return
	}
	a.audit.log(AuditBiometricLogin, r)
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// EnrollBiometrics handles POST /auth/biometrics.
func (a *API) EnrollBiometrics(w http.ResponseWriter, r *http.Request) {
	var req EnrollBiometricsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := a.manager.EnrollBiometrics(req.Password); err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditBiometricsEnrolled, r)
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// SignOut handles POST /auth/signout.
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	var req SignOutRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	if err := a.manager.Logout(req.WipeAll); err != nil {
		mapError(w, err)
		return
	}
	if req.WipeAll {
		a.audit.log(AuditLogoutWipe, r)
	} else {
		a.audit.log(AuditLogout, r)
	}
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// UpdateExpiration handles POST /auth/expiration.
func (a *API) UpdateExpiration(w http.ResponseWriter, r *http.Request) {
	var req UpdateExpirationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ttl, err := time.ParseDuration(req.TTL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ttl duration")
		return
	}

	if err := a.manager.UpdateHashKeyExpiration(ttl); err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditExpirationUpdated, r, slog.String("ttl", ttl.String()))
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// ClearError handles POST /auth/error/clear.
func (a *API) ClearError(w http.ResponseWriter, r *http.Request) {
	a.manager.ClearError()
	writeJSON(w, http.StatusOK, a.statusResponse())
}

// RevealRecoveryPhrase handles POST /auth/recovery-phrase.
func (a *API) RevealRecoveryPhrase(w http.ResponseWriter, r *http.Request) {
	var req RevealPhraseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	phrase, err := a.manager.RevealRecoveryPhrase(req.Password)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditPhraseRevealed, r)
	writeJSON(w, http.StatusOK, RevealPhraseResponse{RecoveryPhrase: phrase})
}

// ListAccounts handles GET /accounts.
func (a *API) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.manager.Accounts().All()
	if err != nil {
		mapError(w, err)
		return
	}
	activeID := ""
	if active, err := a.manager.Accounts().Active(); err == nil {
		activeID = active.ID
	}

	views := make([]AccountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, AccountView{
			ID:                    acct.ID,
			Name:                  acct.Name,
			PublicKey:             acct.PublicKey,
			ImportedFromSecretKey: acct.ImportedFromSecretKey,
			Active:                acct.ID == activeID,
		})
	}
	writeJSON(w, http.StatusOK, ListAccountsResponse{Accounts: views})
}

// CreateAccount handles POST /accounts.
func (a *API) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	account, err := a.manager.CreateAccount(req.Name)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditAccountCreated, r, slog.String("account_id", account.ID))
	writeJSON(w, http.StatusCreated, AccountView{
		ID:        account.ID,
		Name:      account.Name,
		PublicKey: account.PublicKey,
		Active:    true,
	})
}

// ImportSecretKey handles POST /accounts/import.
func (a *API) ImportSecretKey(w http.ResponseWriter, r *http.Request) {
	var req ImportSecretKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.SecretKey == "" {
		writeError(w, http.StatusBadRequest, "name and secretKey are required")
		return
	}

	account, err := a.manager.ImportSecretKey(req.Name, req.SecretKey)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditSecretKeyImported, r, slog.String("account_id", account.ID))
	writeJSON(w, http.StatusCreated, AccountView{
		ID:                    account.ID,
		Name:                  account.Name,
		PublicKey:             account.PublicKey,
		ImportedFromSecretKey: true,
		Active:                true,
	})
}

// RenameAccount handles PUT /accounts/{publicKey}/name.
func (a *API) RenameAccount(w http.ResponseWriter, r *http.Request) {
	publicKey := chi.URLParam(r, "publicKey")
	var req RenameAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := a.manager.Accounts().Rename(publicKey, req.Name); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectAccount handles POST /accounts/{publicKey}/select.
func (a *API) SelectAccount(w http.ResponseWriter, r *http.Request) {
	publicKey := chi.URLParam(r, "publicKey")
	if err := a.manager.Accounts().SetActive(publicKey); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignPayload handles POST /sign.
func (a *API) SignPayload(w http.ResponseWriter, r *http.Request) {
	var req SignPayloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payload, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payload must be base64")
		return
	}

	sig, err := a.manager.SignPayload(payload)
	if err != nil {
		mapError(w, err)
		return
	}
	active, err := a.manager.Accounts().Active()
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditPayloadSigned, r, slog.String("account_id", active.ID))
	writeJSON(w, http.StatusOK, SignPayloadResponse{
		PublicKey: active.PublicKey,
		Signature: base64.StdEncoding.EncodeToString(sig),
	})
}
