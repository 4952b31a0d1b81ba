package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/golang-jwt/jwt/v5"
)

const jwtExpirationHours = 24

type AuthHandler struct {
	UserRepo repository.UserRepositoryInterface
	JWTKey   []byte
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, jwtSecret string) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, JWTKey: []byte(jwtSecret)}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil {
		// generic message so usernames cannot be enumerated
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	expirationTime := time.Now().Add(jwtExpirationHours * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "attendsysbackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTKey)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "token_error", "failed to generate token")
		return
	}

	userForResponse := *user
	userForResponse.PasswordHash = ""

	response := LoginResponse{
		Token:     tokenString,
		User:      userForResponse,
		ExpiresAt: expirationTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CurrentUser returns the authenticated user from the request context. It
// must be mounted behind AuthMiddleware.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok || user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "context_error", "could not retrieve user from context")
		return
	}

	userForResponse := *user
	userForResponse.PasswordHash = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userForResponse)
}

// Logout is client-side for JWT; the endpoint exists so the frontend has a
// single place to hit when discarding the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "logged out; discard your token"})
}
