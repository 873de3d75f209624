package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/health-risk-be/internal/http/respond"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/risk"
	"github.com/hongminglow/health-risk-be/internal/validate"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// respondInvalid answers 422 when err is an input problem and reports whether
// it did.
func respondInvalid(w http.ResponseWriter, err error) bool {
	var verrs *validate.Errors
	var missing *models.MissingFeatureError
	switch {
	case errors.As(err, &verrs):
		respond.Invalid(w, "validation failed", verrs.Fields)
	case errors.As(err, &missing):
		respond.Invalid(w, "validation failed", map[string][]string{missing.Field: {"is required"}})
	case errors.Is(err, risk.ErrDivisionUndefined):
		respond.Invalid(w, "validation failed", map[string][]string{"age": {"must not be zero"}})
	default:
		return false
	}
	return true
}

func respondInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), op, "error", err)
	respond.Error(w, http.StatusInternalServerError, "internal server error")
}
