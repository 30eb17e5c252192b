package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTSecret_SetAndCopy(t *testing.T) {
	original := GetJWTSecretByte()
	defer SetJWTSecret(string(original))

	SetJWTSecret("clinic-secret")
	secret := GetJWTSecretByte()
	assert.Equal(t, []byte("clinic-secret"), secret)

	secret[0] = 'X'
	assert.Equal(t, []byte("clinic-secret"), GetJWTSecretByte())
}
