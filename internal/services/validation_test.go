package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"bob", "bob.k", "a_b_c", "user123", "x.y_z9", strings.Repeat("a", 20)}
	for _, u := range valid {
		assert.NoError(t, ValidateUsername(u), u)
	}

	invalid := []string{
		"ab", strings.Repeat("a", 21),
		"Bob", "bob-k", "боб",
		"_bob", ".bob", "bob_", "bob.",
	}
	for _, u := range invalid {
		assert.Error(t, ValidateUsername(u), u)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"bob@x.com", "a.b+c@mail.example.org", "user_1%x@sub.domain.io"}
	for _, e := range valid {
		assert.NoError(t, ValidateEmail(e), e)
	}

	invalid := []string{"", "plain", "@x.com", "bob@", "bob@x", "bob@.com", "bob x@y.com"}
	for _, e := range invalid {
		assert.Error(t, ValidateEmail(e), e)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret12"))

	invalid := map[string]string{
		"Se1":      "too short",
		"secret12": "no uppercase",
		"SECRET12": "no lowercase",
		"Secretpw": "no digit",
	}
	for p, why := range invalid {
		assert.Error(t, ValidatePassword(p), why)
	}
}
