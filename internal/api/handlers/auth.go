package handlers

import (
	"net/http"
	"strings"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/jwt"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	store     *state.Store
	tokens    *jwt.JWTUtil
	validator *validator.Validate
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewAuthHandler(store *state.Store, tokens *jwt.JWTUtil) *AuthHandler {
	return &AuthHandler{
		store:     store,
		tokens:    tokens,
		validator: validator.New(),
	}
}

// SignUp creates the local profile and signs it in
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := h.store.SignUp(c.Request.Context(), req)
	if err != nil {
		storeError(c, "Failed to create account", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, "Account created successfully", user)
}

// Login restores the persisted profile
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	ok, err := h.store.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		storeError(c, "Login failed", err)
		return
	}
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	h.respondWithToken(c, http.StatusOK, "Login successful", h.store.Snapshot().CurrentUser)
}

// Logout ends the session; persisted data is kept
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.store.Logout(c.Request.Context()); err != nil {
		storeError(c, "Logout failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Logout successful", nil)
}

// Me returns the signed-in profile
func (h *AuthHandler) Me(c *gin.Context) {
	user := h.store.Snapshot().CurrentUser
	if user == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", user)
}

// RefreshToken reissues the caller's token when it is close to expiry
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tokenString == "" {
		tokenString = c.Query("token")
	}

	token, err := h.tokens.RefreshToken(tokenString)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Token refresh failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token refreshed successfully", gin.H{"token": token})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	if user == nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Session was not established", nil)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	utils.SuccessResponse(c, status, message, AuthResponse{Token: token, User: user})
}
