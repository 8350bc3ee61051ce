package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freighterhq/freighter/auth"
	"github.com/freighterhq/freighter/biometric"
	"github.com/freighterhq/freighter/keystore"
	"github.com/freighterhq/freighter/session"
	"github.com/freighterhq/freighter/storage"
	"github.com/freighterhq/freighter/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInvalidRecoveryPhrase):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotSignedUp):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrAlreadySignedUp):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidTTL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, keystore.ErrCorruptedStore):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wallet.ErrInvalidStrkey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrAccountExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wallet.ErrNoActiveAccount):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, biometric.ErrSensorUnavailable):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, biometric.ErrPromptDenied):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, biometric.ErrNotEnrolled):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
