package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+35799000000", NormalizePhone("+357 99 000000"))
	assert.Equal(t, "+35799000000", NormalizePhone(" +357-99-000-000 "))
	assert.Equal(t, "+14155550100", NormalizePhone("+1 (415) 555-0100"))
	assert.Equal(t, "+35799000000", NormalizePhone("+35799000000"))
}

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"+35799000000",
		"+357 99 000000",
		"+1 (415) 555-0100",
		"+4915112345678",
	}
	for _, p := range valid {
		assert.NoError(t, ValidatePhone(p), p)
	}

	invalid := []string{
		"",
		"35799000000",   // missing +
		"+123456",       // too short
		"+1234567890123456", // too long
		"+357abc99000",  // letters
	}
	for _, p := range invalid {
		assert.Error(t, ValidatePhone(p), p)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("nikos_k"))
	assert.NoError(t, ValidateUsername("Seller2026"))

	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("1starts_with_digit"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("way_too_long_username_xx"))
}
