package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
	"capsulelink/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary      Register a new account
// @Description  Creates an unverified user and emails a verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Registration data"
// @Success      201       {object}  map[string]interface{}
// @Failure      400       {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, created, err := h.userService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		if ce, ok := repositories.AsConflict(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "a verified user with given " + ce.Field + " already exists",
				"field": ce.Field,
			})
			return
		}
		log.Printf("[user][register] username=%q err=%v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	status := http.StatusOK
	message := "user updated, verify your account"
	if created {
		status = http.StatusCreated
		message = "user created, verify your account"
	}
	c.JSON(status, gin.H{"message": message, "user_id": user.ID})
}

// @Summary      Toggle or set message acceptance
// @Tags         Settings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /settings/accept-messages [patch]
func (h *UserHandler) SetAcceptingMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// body optional: absent or null flips, an explicit value sets
	var req struct {
		AcceptMessages *bool `json:"accept_messages"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	accepting, err := h.userService.SetAcceptingMessage(userID, req.AcceptMessages)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("[user][accept-toggle] user_id=%d err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_accepting_message": accepting})
}

// @Summary      Get user settings
// @Tags         Settings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /settings [get]
func (h *UserHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	accepting, err := h.userService.GetSettings(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("[user][settings] user_id=%d err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_accepting_message": accepting})
}
