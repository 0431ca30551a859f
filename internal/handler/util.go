package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paypass/paypass-backend/internal/gateway"
	"github.com/paypass/paypass-backend/internal/verifier"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeVerifierError maps the error taxonomy onto HTTP statuses: validation
// is the caller's fault, a gateway response carries upstream details, and a
// missing response is a transient upstream failure.
func writeVerifierError(w http.ResponseWriter, message string, err error) {
	var vErr *verifier.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, message, err)
		return
	}

	var gErr *gateway.GatewayError
	if errors.As(err, &gErr) {
		resp := map[string]interface{}{
			"success": false,
			"message": message,
			"error":   "gateway rejected request",
			"details": map[string]interface{}{
				"upstream_status": gErr.StatusCode,
				"upstream_body":   gErr.Body,
			},
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	var nErr *gateway.NetworkError
	if errors.As(err, &nErr) {
		writeError(w, http.StatusBadGateway, message, err)
		return
	}

	writeError(w, http.StatusInternalServerError, message, err)
}

func isValidation(err error) bool {
	var vErr *verifier.ValidationError
	return errors.As(err, &vErr)
}
