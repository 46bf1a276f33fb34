package validation

import (
	"testing"

	"swifttasks-backend/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("abcd123!"))
	assert.False(t, IsValidPassword("abcdefgh"))
	assert.False(t, IsValidPassword("a1!"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("dev@swifttasks.app"))
	assert.False(t, IsValidEmail("dev@"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dev@example.com", NormalizeEmail("  Dev@Example.COM "))
}

type sampleBody struct {
	TeamID     string `json:"teamId" validate:"required,uuid"`
	InviteCode string `json:"inviteCode" validate:"required"`
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	fields, err := ValidateStruct(sampleBody{InviteCode: "abc"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "teamId is required", apperr.MessageOf(err))
	require.Len(t, fields, 1)
	assert.Equal(t, "teamId", fields[0].Field)
}

func TestValidateStruct_OK(t *testing.T) {
	fields, err := ValidateStruct(sampleBody{TeamID: "550e8400-e29b-41d4-a716-446655440000", InviteCode: "abc"})
	require.NoError(t, err)
	assert.Nil(t, fields)
}
