package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/thegrail/grail-backend/pkg/logger"
	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/billing"
	"github.com/thegrail/grail-backend/svc/license"
)

type errorResponse struct {
	Error string `json:"error"`
}

// verificationRequiredResponse is returned when a user signs in before
// confirming their email, so clients can route to the resend flow.
type verificationRequiredResponse struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requires_verification"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: validationMessage(verr)})
		return
	}

	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", logger.Error(err))
		respondJSON(w, r, status, errorResponse{Error: "internal server error"})
		return
	}

	respondJSON(w, r, status, errorResponse{Error: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, license.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidBody),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, account.ErrAlreadyVerified),
		errors.Is(err, account.ErrTokenNotFound),
		errors.Is(err, account.ErrTokenExpired),
		errors.Is(err, license.ErrInvalidToken),
		errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, license.ErrDeviceMismatch):
		return http.StatusConflict
	case errors.Is(err, license.ErrExpired):
		return http.StatusGone
	case errors.Is(err, billing.ErrUpstreamProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param()+" characters")
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func decodeAndValidate(r *http.Request, validate *validator.Validate, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return errInvalidBody
	}
	return validate.Struct(dst)
}

var errInvalidBody = errors.New("invalid request body")
