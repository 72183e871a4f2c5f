package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vmc-todo/backend/internal/config"
	"github.com/vmc-todo/backend/internal/model"
	"github.com/vmc-todo/backend/internal/service"
)

type AuthHandler struct {
	svc    *service.SessionService
	errors errorWriter
}

func NewAuthHandler(svc *service.SessionService, cfg config.ServerConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		errors: errorWriter{cfg: cfg, logger: logger},
	}
}

// Login godoc
// @Summary Login
// @Description Authenticates with email and password and issues an access/refresh token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"invalid request body"})
		return
	}

	if messages := validateLogin(req); len(messages) > 0 {
		badRequest(c, messages)
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// Register godoc
// @Summary Register a new user
// @Description Creates the account and logs it in, returning the same token pair as login.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Username, email and password"
// @Success 201 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"invalid request body"})
		return
	}

	if messages := validateRegister(req); len(messages) > 0 {
		badRequest(c, messages)
		return
	}

	session, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.LoginResponse{
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchanges the bearer refresh token for a new access token. The refresh token is not rotated.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/token [get]
func (h *AuthHandler) Refresh(c *gin.Context) {
	uid, accessToken, err := h.svc.Refresh(c.Request.Context(), GetRefreshToken(c))
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.TokenResponse{
		UserID:      uid,
		AccessToken: accessToken,
	})
}

// Logout godoc
// @Summary Logout
// @Description Deletes the bearer refresh token, or every session of the user when everywhere=true.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Param everywhere query string false "Log out all sessions" Enums(true, false)
// @Success 200 {object} model.LogoutResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	everywhere, ok := parseEverywhere(c)
	if !ok {
		return
	}

	affected, err := h.svc.Logout(c.Request.Context(), GetRefreshToken(c), everywhere)
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LogoutResponse{
		Message:    fmt.Sprintf("Logged out successfully from %d devices", affected),
		Everywhere: everywhere,
	})
}

// CloseAccount godoc
// @Summary Close the account
// @Description Re-authenticates with email/password and deletes the user with all refresh tokens and tasks.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CloseAccountRequest true "Email and password"
// @Success 200 {object} model.CloseAccountResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/closeaccount [delete]
func (h *AuthHandler) CloseAccount(c *gin.Context) {
	var req model.CloseAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []string{"invalid request body"})
		return
	}

	if messages := validateLogin(model.LoginRequest{Email: req.Email, Password: req.Password}); len(messages) > 0 {
		badRequest(c, messages)
		return
	}

	uid, err := h.svc.CloseAccount(c.Request.Context(), req.Email, req.Password, GetRefreshToken(c))
	if err != nil {
		h.errors.write(c, err)
		return
	}

	c.JSON(http.StatusOK, model.CloseAccountResponse{
		Message: "Account closed successfully. All account data were deleted",
		UserID:  uid,
	})
}

func validateLogin(req model.LoginRequest) []string {
	var messages []string
	if req.Email == "" {
		messages = append(messages, "Email is required")
	}
	if req.Password == "" {
		messages = append(messages, "Password is required")
	}
	return messages
}

func validateRegister(req model.RegisterRequest) []string {
	var messages []string
	if len(req.Username) < 3 || len(req.Username) > 20 {
		messages = append(messages, "Username must be between 3 and 20 characters long")
	}
	lowered := strings.ToLower(req.Username)
	if strings.Contains(lowered, "admin") {
		messages = append(messages, "Username must not contain the word admin")
	}
	if strings.Contains(lowered, "root") {
		messages = append(messages, "Username must not contain the word root")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		messages = append(messages, "Invalid email address")
	}
	if len(req.Password) < 6 || len(req.Password) > 100 {
		messages = append(messages, "Password must be at least 6 characters long")
	}
	return messages
}

// parseEverywhere reads the logout scope flag: absent means false, any
// value other than "true"/"false" is a 400.
func parseEverywhere(c *gin.Context) (bool, bool) {
	value, exists := c.GetQuery("everywhere")
	if !exists {
		return false, true
	}
	if value != "true" && value != "false" {
		badRequest(c, []string{"Invalid 'everywhere' value, must be 'true' or 'false'"})
		return false, false
	}
	return value == "true", true
}
