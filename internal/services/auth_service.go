package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"capsulelink/internal/config"
	"capsulelink/internal/middleware"
	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
	"capsulelink/internal/utils"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Session wraps the resolved identity in a short-lived bearer credential plus
// a long-lived refresh credential.
type Session struct {
	Identity         models.Identity
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error

	// IssueSession mints an access JWT and stores a fresh opaque refresh
	// token on the user row.
	IssueSession(identity models.Identity) (*Session, error)
	// RefreshSession rotates the refresh token and mints a new access JWT
	// without re-presenting a password.
	RefreshSession(refreshToken string) (*Session, error)
	Logout(userID int64) error
}

type authService struct {
	users      repositories.UserRepository
	jwtKey     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{
		users:      users,
		jwtKey:     []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.AccessTTLHours) * time.Hour,
		refreshTTL: time.Duration(cfg.RefreshTTLHours) * time.Hour,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *authService) newAccessToken(identity models.Identity) (string, error) {
	claims := &middleware.Claims{
		UserID:   identity.ID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

func (s *authService) IssueSession(identity models.Identity) (*Session, error) {
	access, err := s.newAccessToken(identity)
	if err != nil {
		return nil, err
	}

	refresh, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(s.refreshTTL)
	if err := s.users.UpdateRefresh(identity.ID, refresh, refreshExp); err != nil {
		return nil, err
	}

	return &Session{
		Identity:         identity,
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *authService) RefreshSession(refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshExpiresAt == nil {
		return nil, ErrInvalidRefreshToken
	}
	if time.Now().After(*user.RefreshExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	// rotate
	newRefresh, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	newExp := time.Now().Add(s.refreshTTL)
	rotated, err := s.users.RotateRefresh(refreshToken, newRefresh, newExp)
	if err != nil {
		return nil, err
	}
	if rotated == nil {
		// lost the race against a concurrent rotation
		return nil, ErrInvalidRefreshToken
	}

	access, err := s.newAccessToken(rotated.Identity())
	if err != nil {
		return nil, err
	}
	return &Session{
		Identity:         rotated.Identity(),
		AccessToken:      access,
		RefreshToken:     newRefresh,
		RefreshExpiresAt: newExp,
	}, nil
}

func (s *authService) Logout(userID int64) error {
	return s.users.ClearRefresh(userID)
}
