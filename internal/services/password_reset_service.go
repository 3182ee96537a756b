package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"capsulelink/internal/repositories"
	"capsulelink/internal/utils"
)

var ErrResetTokenInvalid = errors.New("invalid or expired token")

const resetTokenTTL = 1 * time.Hour

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	users  repositories.UserRepository
	resets repositories.PasswordResetRepository
	emails EmailService
	auth   AuthService
}

func NewPasswordResetService(
	users repositories.UserRepository,
	resets repositories.PasswordResetRepository,
	emails EmailService,
	auth AuthService,
) PasswordResetService {
	return &passwordResetService{
		users:  users,
		resets: resets,
		emails: emails,
		auth:   auth,
	}
}

func (s *passwordResetService) RequestReset(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	user, err := s.users.GetByEmail(email)
	if err != nil || user == nil {
		// don't leak existence
		log.Printf("[password-reset] request for %q: user not found or error: %v", email, err)
		return nil
	}

	token, err := utils.NewRefreshToken(32)
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	if _, err := s.resets.Create(user.ID, token, expires); err != nil {
		return err
	}

	if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
		log.Printf("[password-reset] failed to send email to %s: %v", user.Email, err)
	}
	return nil
}

func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	pr, err := s.resets.GetByToken(token)
	if err != nil {
		return err
	}
	if pr == nil || pr.UsedAt != nil || time.Now().After(pr.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(pr.UserID, hash); err != nil {
		return err
	}
	return s.resets.MarkUsed(pr.ID)
}
