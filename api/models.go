package api

// ErrorResponse is the JSON body for all error results.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned from GET /auth/status and every transition.
type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SignUpRequest is the JSON body for POST /auth/signup.
type SignUpRequest struct {
	Password string `json:"password"`
}

// SignUpResponse is returned from POST /auth/signup. The recovery phrase is
// shown once for backup and never stored in plaintext.
type SignUpResponse struct {
	RecoveryPhrase string `json:"recoveryPhrase"`
	Status         string `json:"status"`
}

// ImportWalletRequest is the JSON body for POST /auth/import.
type ImportWalletRequest struct {
	Password       string `json:"password"`
	RecoveryPhrase string `json:"recoveryPhrase"`
}

// SignInRequest is the JSON body for POST /auth/signin.
type SignInRequest struct {
	Password string `json:"password"`
}

// BiometricSignInRequest is the JSON body for POST /auth/signin/biometrics.
type BiometricSignInRequest struct {
	Message string `json:"message,omitempty"`
}

// EnrollBiometricsRequest is the JSON body for POST /auth/biometrics.
type EnrollBiometricsRequest struct {
	Password string `json:"password"`
}

// SignOutRequest is the JSON body for POST /auth/signout.
type SignOutRequest struct {
	WipeAll bool `json:"wipeAll,omitempty"`
}

// UpdateExpirationRequest is the JSON body for POST /auth/expiration. TTL is
// a Go duration string, e.g. "24h".
type UpdateExpirationRequest struct {
	TTL string `json:"ttl"`
}

// RevealPhraseRequest is the JSON body for POST /auth/recovery-phrase.
type RevealPhraseRequest struct {
	Password string `json:"password"`
}

// RevealPhraseResponse is returned from POST /auth/recovery-phrase.
type RevealPhraseResponse struct {
	RecoveryPhrase string `json:"recoveryPhrase"`
}

// AccountView is the non-sensitive account record returned by the API.
type AccountView struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	PublicKey             string `json:"publicKey"`
	ImportedFromSecretKey bool   `json:"importedFromSecretKey,omitempty"`
	Active                bool   `json:"active"`
}

// ListAccountsResponse is returned from GET /accounts.
type ListAccountsResponse struct {
	Accounts []AccountView `json:"accounts"`
}

// CreateAccountRequest is the JSON body for POST /accounts.
type CreateAccountRequest struct {
	Name string `json:"name"`
}

// ImportSecretKeyRequest is the JSON body for POST /accounts/import.
type ImportSecretKeyRequest struct {
	Name      string `json:"name"`
	SecretKey string `json:"secretKey"`
}

// RenameAccountRequest is the JSON body for PUT /accounts/{publicKey}/name.
type RenameAccountRequest struct {
	Name string `json:"name"`
}

// SignPayloadRequest is the JSON body for POST /sign. Payload is base64.
type SignPayloadRequest struct {
	Payload string `json:"payload"`
}

// SignPayloadResponse is returned from POST /sign. Signature is base64.
type SignPayloadResponse struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}
