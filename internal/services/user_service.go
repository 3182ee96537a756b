package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("not verified")
)

// cap on the federated username suffix loop; the unique index is the final
// arbiter, this only bounds the retries
const maxUsernameAttempts = 50

type UserService interface {
	// Register creates an unverified user and issues a verification code.
	// A colliding unverified user is re-registered in place; created reports
	// whether a new row was inserted.
	Register(username, email, password string) (user *models.User, created bool, err error)

	// password variant
	AuthenticateWithPassword(identifier, password string) (models.Identity, error)
	// federated variant: the email is provider-asserted by the upstream
	// OAuth callback
	AuthenticateFederated(email string) (models.Identity, error)

	// desired==nil flips the flag, otherwise sets it; returns the new value
	SetAcceptingMessage(userID int64, desired *bool) (bool, error)
	GetSettings(userID int64) (bool, error)
}

type userService struct {
	users        repositories.UserRepository
	verification VerificationService
	auth         AuthService
}

func NewUserService(users repositories.UserRepository, verification VerificationService, auth AuthService) UserService {
	return &userService{
		users:        users,
		verification: verification,
		auth:         auth,
	}
}

func (s *userService) Register(username, email, password string) (*models.User, bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidateUsername(username); err != nil {
		return nil, false, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, false, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, false, err
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.findByUsernameOrEmail(username, email)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if existing.IsVerified {
			field := "username"
			if existing.Email == email {
				field = "email"
			}
			return nil, false, &repositories.ConflictError{Field: field}
		}

		// unverified leftovers may be claimed again with fresh credentials
		if err := s.users.UpdateRegistration(existing.ID, username, email, hash); err != nil {
			return nil, false, err
		}
		existing.Username = username
		existing.Email = email
		if _, err := s.verification.IssueCode(existing); err != nil {
			return nil, false, err
		}
		log.Printf("[user][register] re-registered unverified user_id=%d", existing.ID)
		return existing, false, nil
	}

	user := &models.User{
		Username:           username,
		Email:              email,
		PasswordHash:       hash,
		IsVerified:         false,
		IsAcceptingMessage: true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, false, err
	}
	if _, err := s.verification.IssueCode(user); err != nil {
		return nil, false, err
	}
	log.Printf("[user][register] created user_id=%d", user.ID)
	return user, true, nil
}

func (s *userService) findByUsernameOrEmail(username, email string) (*models.User, error) {
	if u, err := s.users.GetByUsername(username); err != nil || u != nil {
		return u, err
	}
	return s.users.GetByEmail(email)
}

func (s *userService) AuthenticateWithPassword(identifier, password string) (models.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.users.FindByIdentifier(identifier)
	if err != nil {
		return models.Identity{}, err
	}
	if user == nil {
		return models.Identity{}, ErrUserNotFound
	}
	if !user.IsVerified {
		return models.Identity{}, ErrNotVerified
	}
	if user.PasswordHash == "" {
		// federated-only account, no password to check
		return models.Identity{}, ErrInvalidCredentials
	}
	if err := s.auth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return user.Identity(), nil
}

func (s *userService) AuthenticateFederated(email string) (models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return models.Identity{}, err
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return models.Identity{}, err
	}
	if user != nil {
		if !user.IsVerified {
			// provider-validated email ownership supersedes the OTP flow
			if err := s.users.MarkVerified(user.ID); err != nil {
				return models.Identity{}, err
			}
			user.IsVerified = true
			log.Printf("[user][federated] promoted unverified user_id=%d", user.ID)
		}
		return user.Identity(), nil
	}

	return s.provisionFederated(email)
}

// provisionFederated creates a verified user for a first-time federated
// login. Username collisions are resolved optimistically: try a candidate,
// let the unique index reject it, retry with the next numeric suffix.
func (s *userService) provisionFederated(email string) (models.Identity, error) {
	base := usernameFromEmail(email)

	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}

		user := &models.User{
			Username:           candidate,
			Email:              email,
			IsVerified:         true,
			IsAcceptingMessage: true,
		}
		err := s.users.Create(user)
		if err == nil {
			log.Printf("[user][federated] provisioned user_id=%d username=%s", user.ID, candidate)
			return user.Identity(), nil
		}

		if ce, ok := repositories.AsConflict(err); ok {
			if ce.Field == "email" {
				// a concurrent first login for the same email won; use it
				existing, gerr := s.users.GetByEmail(email)
				if gerr != nil {
					return models.Identity{}, gerr
				}
				if existing != nil {
					return existing.Identity(), nil
				}
			}
			// username taken, try the next suffix
			continue
		}
		return models.Identity{}, err
	}
	return models.Identity{}, fmt.Errorf("no free username for %q after %d attempts", base, maxUsernameAttempts)
}

// usernameFromEmail derives a base username from the local part, restricted
// to the allowed charset.
func usernameFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	base := strings.Trim(b.String(), "_.")
	if base == "" {
		base = "user"
	}
	return base
}

func (s *userService) SetAcceptingMessage(userID int64, desired *bool) (bool, error) {
	accepting, err := s.users.SetAcceptingMessage(userID, desired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return accepting, nil
}

func (s *userService) GetSettings(userID int64) (bool, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return user.IsAcceptingMessage, nil
}
