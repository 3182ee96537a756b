package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"capsulelink/internal/models"
	"capsulelink/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// @Summary      Send an anonymous message
// @Description  Anyone may post to a receiver's public link; no authentication required
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        username  path      string                       true  "Receiver username"
// @Param        message   body      models.SubmitMessageRequest  true  "Message"
// @Success      201       {object}  models.Message
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /u/{username}/messages [post]
func (h *MessageHandler) Submit(c *gin.Context) {
	username := c.Param("username")

	var req models.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageService.Submit(username, req)
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.Is(err, services.ErrReceiverNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, services.ErrNotAccepting):
			c.JSON(http.StatusForbidden, gin.H{"error": "user not accepting messages"})
		case errors.Is(err, services.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "content can't be empty"})
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
		default:
			log.Printf("[message][submit] receiver=%q err=%v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "message send failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "message sent successfully", "data": msg})
}

// @Summary      List own messages of one type
// @Description  Sealed delayed messages come back with redacted content and is_unlocked=false
// @Tags         Messages
// @Security     BearerAuth
// @Produce      json
// @Param        type  query     string  true  "normal or delayed"
// @Success      200   {array}   models.Message
// @Router       /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mtype := models.MessageType(c.DefaultQuery("type", string(models.MessageTypeNormal)))
	msgs, err := h.messageService.ListByReceiver(userID, mtype)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		log.Printf("[message][list] user_id=%d type=%s err=%v", userID, mtype, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// @Summary      Fetch one message and mark it read
// @Description  Marking read never unseals a delayed message early
// @Tags         Messages
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Message id"
// @Success      200  {object}  models.Message
// @Failure      404  {object}  map[string]string
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messageService.MarkRead(messageID, userID)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found or not allowed"})
			return
		}
		log.Printf("[message][get] id=%d user_id=%d err=%v", messageID, userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

// @Summary      Delete an own message
// @Tags         Messages
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Message id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messageService.Delete(messageID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no message with the given id found"})
		case errors.Is(err, services.ErrMessageForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to delete this message"})
		default:
			log.Printf("[message][delete] id=%d user_id=%d err=%v", messageID, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
