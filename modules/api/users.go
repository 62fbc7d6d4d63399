package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thegrail/grail-backend/pkg/logger"
	"github.com/thegrail/grail-backend/svc/account"
)

type usersHandler struct {
	accounts AccountService
	validate *validator.Validate
	log      *slog.Logger
}

func (h *usersHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.signup)
	r.Post("/signin", h.signin)
	r.Post("/google-signin", h.googleSignin)
	r.Get("/verify-email/{token}", h.verifyEmail)
	r.Post("/resend-verification", h.resendVerification)
	r.Get("/", h.lookupByEmail)
	r.Get("/{userID}", h.getUser)
	return r
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *usersHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	user, err := h.accounts.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "user signed up", logger.UserID(user.ID), logger.Email(user.Email))
	respondJSON(w, r, http.StatusCreated, user)
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signinResponse struct {
	AccessToken string `json:"access_token"`
	User        string `json:"user"`
}

func (h *usersHandler) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	token, user, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, account.ErrEmailNotVerified) && user != nil {
		respondJSON(w, r, http.StatusForbidden, verificationRequiredResponse{
			Message:              "Email not verified",
			Email:                user.Email,
			RequiresVerification: true,
		})
		return
	}
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, signinResponse{AccessToken: token, User: user.Email})
}

type googleSigninRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Picture string `json:"picture" validate:"omitempty,url"`
}

func (h *usersHandler) googleSignin(w http.ResponseWriter, r *http.Request) {
	var req googleSigninRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	token, user, err := h.accounts.FederatedSignIn(r.Context(), req.Name, req.Email, req.Picture)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, signinResponse{AccessToken: token, User: user.Email})
}

func (h *usersHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "verification token is required"})
		return
	}

	user, err := h.accounts.VerifyEmail(r.Context(), token)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "email verified", logger.UserID(user.ID), logger.Email(user.Email))
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *usersHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendVerificationRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Verification email resent"})
}

func (h *usersHandler) lookupByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "email query parameter is required"})
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

func (h *usersHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}
