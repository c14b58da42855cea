package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Price    float64 `json:"price" validate:"gte=0"`
}

func TestRequestValidator(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&sample{Email: "a@b.com", Password: "12345678", Price: 1}))

	err := v.Validate(&sample{Email: "nope", Password: "short", Price: -1})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email must be a valid email")
		assert.Contains(t, err.Error(), "password must be at least 8")
		assert.Contains(t, err.Error(), "price must be >= 0")
	}

	err = v.Validate(&sample{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email is required")
	}
}
