package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVaultKey(t *testing.T) {
	assert.Equal(t, "custom_signs_guest", VaultKey(""))
	assert.Equal(t, "custom_signs_u1", VaultKey("u1"))
	assert.NotEqual(t, VaultKey("a"), VaultKey("b"))
}
