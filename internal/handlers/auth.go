package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/metrics"
	"github.com/agentboard/api/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// loginFailureMessage is the only message a failed login ever returns.
const loginFailureMessage = "incorrect username or password"

// AuthHandlers handles authentication requests
type AuthHandlers struct {
	store     *db.Store
	issuer    *auth.TokenIssuer
	hasher    *auth.Hasher
	validator *validation.Validator
	logger    *logging.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(store *db.Store, issuer *auth.TokenIssuer, hasher *auth.Hasher, validator *validation.Validator, logger *logging.Logger) *AuthHandlers {
	return &AuthHandlers{
		store:     store,
		issuer:    issuer,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest is the request to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request to login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// TokenResponse is the response for a successful login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
}

// Register registers a new user
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readValidated(r, h.validator, validation.RegisterSchema, &req); err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	passwordHash, err := h.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			WriteAPIError(w, r, h.logger, validation.NewError("password", "is too long"))
			return
		}
		WriteAPIError(w, r, h.logger, err)
		return
	}

	user := &db.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	err = h.store.CreateUser(r.Context(), user)
	metrics.RecordEntityWrite("user", "create", outcome(err))
	if err != nil {
		if errors.Is(err, db.ErrConstraintViolation) {
			WriteError(w, r, http.StatusConflict, CodeConstraintViolation, "username or email already registered", nil)
			return
		}
		WriteAPIError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User registered", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	WriteSuccess(w, UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}, http.StatusCreated)
}

// Login exchanges a username and password for a bearer token. It accepts a JSON body or
// an OAuth2 password-grant form.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.readLogin(r)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	switch {
	case errors.Is(err, db.ErrNotFound):
		h.hasher.VerifyMissing(req.Password)
		h.rejectLogin(w, r)
		return
	case err != nil:
		WriteAPIError(w, r, h.logger, err)
		return
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		h.rejectLogin(w, r)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user.ID, user.Username)
	if err != nil {
		WriteAPIError(w, r, h.logger, err)
		return
	}
	metrics.RecordLogin("success")

	WriteSuccess(w, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.UTC(),
		UserID:      user.ID,
		Username:    user.Username,
	}, http.StatusOK)
}

func (h *AuthHandlers) rejectLogin(w http.ResponseWriter, r *http.Request) {
	metrics.RecordLogin("failure")
	WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, loginFailureMessage, nil)
}

func (h *AuthHandlers) readLogin(r *http.Request) (*LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		var req LoginRequest
		if err := readValidated(r, h.validator, validation.LoginSchema, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, validation.NewError("body", "invalid form body")
	}

	doc := make(map[string]interface{}, len(values))
	for key, v := range values {
		if len(v) > 0 {
			doc[key] = v[0]
		}
	}
	if err := h.validator.Validate(validation.LoginSchema, doc); err != nil {
		return nil, err
	}
	return &LoginRequest{Username: values.Get("username"), Password: values.Get("password")}, nil
}

// Me returns the authenticated user
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, r, h.logger, fmt.Errorf("%w: no user in context", auth.ErrUnauthorized))
		return
	}
	WriteSuccess(w, UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}, http.StatusOK)
}
