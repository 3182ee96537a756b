package routes

import (
	"github.com/gin-gonic/gin"

	"capsulelink/internal/handlers"
	"capsulelink/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	verifyHandler *handlers.VerifyHandler,
	messageHandler *handlers.MessageHandler,
	resetHandler *handlers.PasswordResetHandler,
) *gin.Engine {

	// ---- public
	r.POST("/register", userHandler.Register)
	r.POST("/register/confirm", verifyHandler.ConfirmUser)
	r.POST("/register/resend", verifyHandler.ResendUser)
	r.POST("/login", authHandler.Login)
	r.POST("/login/federated", authHandler.FederatedLogin)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/password-reset/request", resetHandler.Request)
	r.POST("/password-reset/confirm", resetHandler.Confirm)

	// anonymous senders post straight to a receiver's public link
	r.POST("/u/:username/messages", messageHandler.Submit)

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtKey))

	r.POST("/logout", authHandler.Logout)

	messages := r.Group("/messages")
	{
		messages.GET("", messageHandler.List)
		messages.GET("/:id", messageHandler.Get)
		messages.DELETE("/:id", messageHandler.Delete)
	}

	settings := r.Group("/settings")
	{
		settings.GET("", userHandler.GetSettings)
		settings.PATCH("/accept-messages", userHandler.SetAcceptingMessage)
	}

	return r
}
