package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"capsulelink/internal/models"
	"capsulelink/internal/services"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
}

func NewAuthHandler(userService services.UserService, authService services.AuthService) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, session *services.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, session.RefreshToken,
		int(time.Until(session.RefreshExpiresAt).Seconds()), "/", "", false, true)
}

// @Summary      Log in with username or email
// @Description  Authenticates verified users and issues an access token plus a refresh cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.userService.AuthenticateWithPassword(req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "account not verified"})
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrInvalidCredentials):
			// same answer either way, don't leak which
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			log.Printf("[auth][login] identifier=%q err=%v", req.Identifier, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	h.issue(c, identity)
}

// @Summary      Federated login
// @Description  Logs in (provisioning on first use) with a provider-asserted email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /login/federated [post]
func (h *AuthHandler) FederatedLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.userService.AuthenticateFederated(req.Email)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		log.Printf("[auth][federated] email=%q err=%v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	h.issue(c, identity)
}

func (h *AuthHandler) issue(c *gin.Context, identity models.Identity) {
	session, err := h.authService.IssueSession(identity)
	if err != nil {
		log.Printf("[auth][session] user_id=%d err=%v", identity.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}
	h.setRefreshCookie(c, session)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         session.Identity,
		"access_token": session.AccessToken,
	})
}

// @Summary      Refresh the access token
// @Description  Rotates the refresh cookie and mints a new access token
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refresh, err := c.Cookie(refreshCookieName)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token missing"})
		return
	}

	session, err := h.authService.RefreshSession(refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		log.Printf("[auth][refresh] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	h.setRefreshCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"access_token": session.AccessToken})
}

// @Summary      Log out
// @Tags         Auth
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.authService.Logout(userID); err != nil {
		log.Printf("[auth][logout] user_id=%d err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
