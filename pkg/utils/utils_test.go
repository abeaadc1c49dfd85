package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gathering-hub/backend/internal/apperr"
)

func TestHashPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))
}

type draft struct {
	Title        string `validate:"required"`
	Location     string `validate:"required"`
	ImageURL     string `validate:"omitempty,url"`
	MaxAttendees *int   `validate:"omitempty,gt=0"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(draft{Title: "Picnic", Location: "Park"}))

	err := Validate(draft{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "title is required; location is required", err.Error())

	zero := 0
	err = Validate(draft{Title: "a", Location: "b", ImageURL: "not a url", MaxAttendees: &zero})
	require.Error(t, err)
	assert.Equal(t, "image_url must be a valid URL; max_attendees must be greater than 0", err.Error())
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("content", "hi", "required"))
	err := ValidateVar("content", "", "required")
	require.Error(t, err)
	assert.Equal(t, "content is required", err.Error())
}
