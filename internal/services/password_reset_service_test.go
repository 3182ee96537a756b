package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capsulelink/internal/config"
	"capsulelink/internal/models"
)

func newResetFixture() (PasswordResetService, *fakeUserRepo, *fakePasswordResetRepo, *fakeEmailService, AuthService) {
	users := newFakeUserRepo()
	resets := newFakePasswordResetRepo()
	emails := &fakeEmailService{}
	auth := NewAuthService(users, config.AuthConfig{JWTSecret: "test-secret"})
	return NewPasswordResetService(users, resets, emails, auth), users, resets, emails, auth
}

func TestRequestResetCreatesTokenAndEmails(t *testing.T) {
	svc, users, resets, emails, _ := newResetFixture()
	u := users.add(&models.User{Username: "bob.k", Email: "bob@x.com", IsVerified: true})

	require.NoError(t, svc.RequestReset("BOB@X.com"))

	require.Len(t, resets.byToken, 1)
	for token, pr := range resets.byToken {
		assert.Equal(t, u.ID, pr.UserID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), pr.ExpiresAt, 5*time.Second)
		require.Len(t, emails.resetSends, 1)
		assert.Equal(t, "bob@x.com/"+token, emails.resetSends[0])
	}
}

func TestRequestResetDoesNotLeakExistence(t *testing.T) {
	svc, _, resets, emails, _ := newResetFixture()

	require.NoError(t, svc.RequestReset("nobody@x.com"))

	assert.Empty(t, resets.byToken)
	assert.Empty(t, emails.resetSends)
}

func TestResetPassword(t *testing.T) {
	svc, users, resets, _, auth := newResetFixture()
	u := users.add(&models.User{Username: "bob.k", Email: "bob@x.com", IsVerified: true})
	resets.byToken["tok"] = &models.PasswordReset{ID: 1, UserID: u.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, svc.ResetPassword("tok", "Fresh1pass"))

	assert.NoError(t, auth.ComparePassword(u.PasswordHash, "Fresh1pass"))
	assert.Equal(t, []int64{1}, resets.used)

	// single use
	err := svc.ResetPassword("tok", "Another1pass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPasswordRejectsBadToken(t *testing.T) {
	svc, _, resets, _, _ := newResetFixture()
	resets.byToken["stale"] = &models.PasswordReset{ID: 1, UserID: 1, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)}

	assert.ErrorIs(t, svc.ResetPassword("missing", "Fresh1pass"), ErrResetTokenInvalid)
	assert.ErrorIs(t, svc.ResetPassword("stale", "Fresh1pass"), ErrResetTokenInvalid)
	assert.ErrorIs(t, svc.ResetPassword("  ", "Fresh1pass"), ErrResetTokenInvalid)
}

func TestResetPasswordValidatesNewPassword(t *testing.T) {
	svc, _, resets, _, _ := newResetFixture()
	resets.byToken["tok"] = &models.PasswordReset{ID: 1, UserID: 1, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}

	err := svc.ResetPassword("tok", "weak")
	assertValidation(t, err, "password")
	assert.Empty(t, resets.used) // token still live for a proper retry
}
