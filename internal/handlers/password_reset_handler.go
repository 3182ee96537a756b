package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"capsulelink/internal/services"
)

type PasswordResetHandler struct {
	resetService services.PasswordResetService
}

func NewPasswordResetHandler(resetService services.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService}
}

// @Summary      Request a password reset token
// @Description  Always answers 200 so account existence is not leaked
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /password-reset/request [post]
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resetService.RequestReset(req.Email); err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		log.Printf("[password-reset][request] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the email exists, a reset token has been sent"})
}

// @Summary      Reset the password with a token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /password-reset/confirm [post]
func (h *PasswordResetHandler) Confirm(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resetService.ResetPassword(req.Token, req.Password); err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
		case errors.Is(err, services.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired token"})
		default:
			log.Printf("[password-reset][confirm] err=%v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated, you can log in now"})
}
