package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingKind(t *testing.T) {
	k, err := ParseBookingKind("single")
	assert.NoError(t, err)
	assert.Equal(t, KindSingle, k)

	k, err = ParseBookingKind("pass")
	assert.NoError(t, err)
	assert.Equal(t, KindPass, k)

	_, err = ParseBookingKind("trial")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Иван Петров", DisplayName("Иван", "Петров", "ivan"))
	assert.Equal(t, "Иван", DisplayName(" Иван ", "", "ivan"))
	assert.Equal(t, "ivan", DisplayName("", "", "ivan"))
	assert.Equal(t, "", DisplayName("", "", ""))
}
