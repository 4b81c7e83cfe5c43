package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func userView(user *model.User) gin.H {
	return gin.H{
		"id":     user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"phone":  user.Phone,
		"role":   user.Role,
		"status": user.Status,
	}
}

// Register handles user registration
// POST /api/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email, password and name are required")
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
		case errors.Is(err, util.ErrWeakPassword):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		default:
			log.Error("Registration failed", err)
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userView(user),
		"tokens":  tokens,
	})
}

// Login POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
		case errors.Is(err, service.ErrAccountSuspended):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthAccountSuspended, "This account is suspended")
		default:
			log.Error("Login failed", err)
			apperrors.InternalError(c, "Login failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userView(user),
		"tokens":  tokens,
	})
}

// Refresh POST /api/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "refresh_token is required")
		return
	}

	user, tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid refresh token")
		case errors.Is(err, service.ErrAccountSuspended):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthAccountSuspended, "This account is suspended")
		default:
			middleware.GetLoggerFromContext(c).Error("Token refresh failed", err)
			apperrors.InternalError(c, "Token refresh failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userView(user),
		"tokens": tokens,
	})
}

// Logout revokes the current access token
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		apperrors.InternalError(c, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe GET /api/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
			return
		}
		apperrors.InternalError(c, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// UpdateMe PUT /api/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile data")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
			return
		}
		apperrors.InternalError(c, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    userView(user),
	})
}
