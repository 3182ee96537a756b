package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"capsulelink/internal/services"
)

type VerifyHandler struct {
	verification services.VerificationService
}

func NewVerifyHandler(verification services.VerificationService) *VerifyHandler {
	return &VerifyHandler{verification: verification}
}

// @Summary      Confirm a verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /register/confirm [post]
func (h *VerifyHandler) ConfirmUser(c *gin.Context) {
	var req struct {
		UserID int64  `json:"user_id" binding:"required"`
		Code   string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.verification.Verify(req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "code expired, please ask for a new code"})
		case errors.Is(err, services.ErrCodeMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "incorrect code"})
		default:
			log.Printf("[verify][confirm] user_id=%d err=%v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		}
		return
	}

	if status == services.StatusAlreadyVerified {
		c.JSON(http.StatusOK, gin.H{"message": "user already verified"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code verified successfully, now you can login"})
}

// @Summary      Resend the verification code
// @Description  Rate limited to one send per 60 seconds per user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /register/resend [post]
func (h *VerifyHandler) ResendUser(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.Resend(req.UserID); err != nil {
		switch {
		case errors.Is(err, services.ErrResendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait 60 seconds before requesting again"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Printf("[verify][resend] user_id=%d err=%v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resend failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent successfully"})
}
