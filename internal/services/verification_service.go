package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"time"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrResendThrottled = errors.New("resend throttled")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeMismatch    = errors.New("code mismatch")
)

const (
	codeTTL        = 1 * time.Hour
	resendCooldown = 60 * time.Second
)

// VerifyStatus distinguishes a fresh confirmation from the already-verified
// no-op.
type VerifyStatus int

const (
	StatusVerified VerifyStatus = iota
	StatusAlreadyVerified
)

// VerificationService issues, validates and rate-limits one-time codes.
type VerificationService interface {
	// IssueCode generates a fresh 6-digit code, persists it with a 1-hour
	// expiry (overwriting any outstanding code) and emails it.
	IssueCode(user *models.User) (string, error)
	Resend(userID int64) error
	Verify(userID int64, code string) (VerifyStatus, error)
}

type verificationService struct {
	users     repositories.UserRepository
	cooldowns repositories.CooldownRepository
	emails    EmailService
}

func NewVerificationService(
	users repositories.UserRepository,
	cooldowns repositories.CooldownRepository,
	emails EmailService,
) VerificationService {
	return &verificationService{
		users:     users,
		cooldowns: cooldowns,
		emails:    emails,
	}
}

// generateCode returns a uniform 6-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating random code: %w", err)
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}

func (s *verificationService) IssueCode(user *models.User) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	expiry := time.Now().Add(codeTTL)
	if err := s.users.SetVerificationCode(user.ID, code, expiry); err != nil {
		return "", err
	}

	// a failed send leaves the persisted code valid; the caller may resend
	if err := s.emails.SendVerificationEmail(user.Email, user.Username, code); err != nil {
		return "", err
	}

	log.Printf("[verify][issue] user_id=%d expires_at=%s", user.ID, expiry.Format(time.RFC3339))
	return code, nil
}

func (s *verificationService) Resend(userID int64) error {
	// the guard is checked (and armed) before anything else, like the
	// original cooldown key; it expires on its own 60s schedule regardless
	// of code state
	ok, err := s.cooldowns.Acquire(cooldownKey(userID), resendCooldown)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResendThrottled
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	_, err = s.IssueCode(user)
	return err
}

func (s *verificationService) Verify(userID int64, code string) (VerifyStatus, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	if user.IsVerified {
		// single-use codes: a repeat confirm is a no-op, not a mismatch
		return StatusAlreadyVerified, nil
	}
	if user.CodeExpiry == nil {
		// an unverified user always holds a code; defensive check
		return 0, fmt.Errorf("unverified user %d has no code expiry", userID)
	}
	if time.Now().After(*user.CodeExpiry) {
		return 0, ErrCodeExpired
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return 0, ErrCodeMismatch
	}

	if err := s.users.MarkVerified(userID); err != nil {
		return 0, err
	}
	log.Printf("[verify][confirm] OK user_id=%d", userID)
	return StatusVerified, nil
}

func cooldownKey(userID int64) string {
	return "resend-cooldown:" + strconv.FormatInt(userID, 10)
}
