// @title           CapsuleLink API
// @version         1.0
// @description     Anonymous and time-locked messaging backend.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"github.com/joho/godotenv"

	"capsulelink/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}
	app.Run()
}
