// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/models"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("Failed to encode JSON response")
		}
	}
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{
		Error: message,
	})
}

// DecodeJSON decodes the request body into the provided struct.
// Returns false if decoding fails (error already sent to client).
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, dest *T) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// ParseIDParam extracts and validates a positive int64 URL parameter.
// Returns the value and true on success, or 0 and false if invalid (error
// already sent). The displayName is used in error messages.
func ParseIDParam(w http.ResponseWriter, r *http.Request, paramName, displayName string) (int64, bool) {
	str := strings.TrimSpace(chi.URLParam(r, paramName))
	if str == "" {
		RespondError(w, http.StatusBadRequest, displayName+" is required")
		return 0, false
	}

	value, err := strconv.ParseInt(str, 10, 64)
	if err != nil || value <= 0 {
		RespondError(w, http.StatusBadRequest, "Invalid "+displayName)
		return 0, false
	}
	return value, true
}

var notFoundSentinels = []error{
	models.ErrUserNotFound,
	models.ErrClientNotFound,
	models.ErrProductNotFound,
	models.ErrSubscriptionNotFound,
	models.ErrLicenseNotFound,
	models.ErrInvoiceNotFound,
	models.ErrTransactionNotFound,
	models.ErrTicketNotFound,
	models.ErrNotificationNotFound,
}

func isNotFound(err error) bool {
	for _, sentinel := range notFoundSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// RespondStoreError maps the store error taxonomy onto HTTP statuses:
// validation and invalid transitions are 400, missing entities 404, key
// conflicts 409, everything else a logged 500.
func RespondStoreError(w http.ResponseWriter, err error, context string) {
	var validationErr *models.ValidationError
	var transitionErr *models.InvalidTransitionError
	var conflictErr *models.ConflictError

	switch {
	case errors.As(err, &validationErr):
		RespondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &transitionErr):
		RespondError(w, http.StatusBadRequest, transitionErr.Error())
	case errors.As(err, &conflictErr):
		RespondError(w, http.StatusConflict, conflictErr.Error())
	case isNotFound(err):
		RespondError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Str("context", context).Msg("request failed")
		RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
