package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capsulelink/internal/models"
	"capsulelink/internal/repositories"
	"capsulelink/internal/services"
)

func newUserRouter(svc services.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)
	r := gin.New()
	r.POST("/register", h.Register)
	authed := r.Group("/", func(c *gin.Context) { c.Set("user_id", int64(7)) })
	authed.PATCH("/settings/accept-messages", h.SetAcceptingMessage)
	authed.GET("/settings", h.GetSettings)
	return r
}

func TestRegisterHandler(t *testing.T) {
	body := `{"username":"bob.k","email":"bob@x.com","password":"Secret12"}`

	t.Run("created", func(t *testing.T) {
		r := newUserRouter(&stubUserService{registerUser: &models.User{ID: 7}, registerCreated: true})
		w := doJSON(r, http.MethodPost, "/register", body)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":7`)
		assert.Contains(t, w.Body.String(), "user created")
	})

	t.Run("re-registered unverified", func(t *testing.T) {
		r := newUserRouter(&stubUserService{registerUser: &models.User{ID: 7}})
		w := doJSON(r, http.MethodPost, "/register", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user updated")
	})

	t.Run("validation error", func(t *testing.T) {
		r := newUserRouter(&stubUserService{registerErr: &services.ValidationError{Field: "password", Message: "must contain a digit"}})
		w := doJSON(r, http.MethodPost, "/register", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"password"`)
	})

	t.Run("conflict", func(t *testing.T) {
		r := newUserRouter(&stubUserService{registerErr: &repositories.ConflictError{Field: "email"}})
		w := doJSON(r, http.MethodPost, "/register", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "a verified user with given email already exists")
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newUserRouter(&stubUserService{})
		w := doJSON(r, http.MethodPost, "/register", `{"username":"bob.k"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetAcceptingMessageHandler(t *testing.T) {
	t.Run("empty body flips", func(t *testing.T) {
		r := newUserRouter(&stubUserService{accepting: false})
		w := doJSON(r, http.MethodPatch, "/settings/accept-messages", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"is_accepting_message":false}`, w.Body.String())
	})

	t.Run("explicit value sets", func(t *testing.T) {
		r := newUserRouter(&stubUserService{accepting: true})
		w := doJSON(r, http.MethodPatch, "/settings/accept-messages", `{"accept_messages":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"is_accepting_message":true}`, w.Body.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		r := newUserRouter(&stubUserService{acceptingErr: services.ErrUserNotFound})
		w := doJSON(r, http.MethodPatch, "/settings/accept-messages", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetSettingsHandler(t *testing.T) {
	r := newUserRouter(&stubUserService{accepting: true})
	w := doJSON(r, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_accepting_message":true}`, w.Body.String())

	r = newUserRouter(&stubUserService{acceptingErr: services.ErrUserNotFound})
	w = doJSON(r, http.MethodGet, "/settings", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
