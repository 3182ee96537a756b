package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"capsulelink/internal/models"
	"capsulelink/internal/services"
)

type stubVerificationService struct {
	status    services.VerifyStatus
	verifyErr error
	resendErr error
}

func (s *stubVerificationService) IssueCode(user *models.User) (string, error) {
	return "123456", nil
}

func (s *stubVerificationService) Resend(userID int64) error {
	return s.resendErr
}

func (s *stubVerificationService) Verify(userID int64, code string) (services.VerifyStatus, error) {
	return s.status, s.verifyErr
}

func newVerifyRouter(svc services.VerificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewVerifyHandler(svc)
	r := gin.New()
	r.POST("/register/confirm", h.ConfirmUser)
	r.POST("/register/resend", h.ResendUser)
	return r
}

func TestConfirmUser(t *testing.T) {
	cases := []struct {
		name     string
		stub     stubVerificationService
		status   int
		contains string
	}{
		{"verified", stubVerificationService{status: services.StatusVerified}, http.StatusOK, "now you can login"},
		{"already verified", stubVerificationService{status: services.StatusAlreadyVerified}, http.StatusOK, "already verified"},
		{"unknown user", stubVerificationService{verifyErr: services.ErrUserNotFound}, http.StatusNotFound, "user not found"},
		{"expired", stubVerificationService{verifyErr: services.ErrCodeExpired}, http.StatusForbidden, "expired"},
		{"mismatch", stubVerificationService{verifyErr: services.ErrCodeMismatch}, http.StatusForbidden, "incorrect"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newVerifyRouter(&tc.stub)
			w := doJSON(r, http.MethodPost, "/register/confirm", `{"user_id":7,"code":"123456"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}
}

func TestConfirmUserValidatesCodeShape(t *testing.T) {
	r := newVerifyRouter(&stubVerificationService{})

	for _, body := range []string{
		`{"user_id":7,"code":"123"}`,
		`{"user_id":7}`,
		`{"code":"123456"}`,
	} {
		w := doJSON(r, http.MethodPost, "/register/confirm", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestResendUser(t *testing.T) {
	cases := []struct {
		name   string
		stub   stubVerificationService
		status int
	}{
		{"sent", stubVerificationService{}, http.StatusOK},
		{"throttled", stubVerificationService{resendErr: services.ErrResendThrottled}, http.StatusTooManyRequests},
		{"unknown user", stubVerificationService{resendErr: services.ErrUserNotFound}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newVerifyRouter(&tc.stub)
			w := doJSON(r, http.MethodPost, "/register/resend", `{"user_id":7}`)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
