package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/models"
	"github.com/AnshRaj112/grow-backend/internal/services"
)

// Accounts registers and authenticates users.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (models.Account, error)
	SignIn(ctx context.Context, email, password string) (models.Account, error)
}

// Sessions issues and revokes bearer tokens.
type Sessions interface {
	Create(ctx context.Context, email string) (string, error)
	Invalidate(ctx context.Context, token string) error
}

type AuthHandler struct {
	accounts Accounts
	sessions Sessions
	log      *zap.Logger
}

func NewAuthHandler(accounts Accounts, sessions Sessions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: log}
}

// User Signup Request
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// User Signin Request
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Auth Response
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Email   string `json:"email,omitempty"`
}

type MeResponse struct {
	Email string `json:"email"`
}

// Signup handles POST /api/auth/signup and signs the new user in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create account")
		return
	}
	h.issueSession(w, r, http.StatusCreated, account.Email)
}

// Signin handles POST /api/auth/signin.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to sign in")
		return
	}
	h.issueSession(w, r, http.StatusOK, account.Email)
}

// Signout handles POST /api/auth/signout.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Invalidate(r.Context(), middleware.BearerToken(r)); err != nil {
		h.log.Sugar().Errorw("failed to invalidate session", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MeResponse{Email: middleware.UserEmail(r.Context())})
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, status int, email string) {
	token, err := h.sessions.Create(r.Context(), email)
	if err != nil {
		h.log.Sugar().Errorw("failed to create session", "user", email, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, status, AuthResponse{Success: true, Token: token, Email: services.NormalizeEmail(email)})
}
