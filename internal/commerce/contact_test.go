package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
	assert.Equal(t, "", NormalizeEmail(""))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551111", NormalizePhone("555-1111"))
	assert.Equal(t, "5551111", NormalizePhone("(555) 1111"))
	assert.Equal(t, "15551111", NormalizePhone("+1 555 1111"))
	assert.Equal(t, "", NormalizePhone("no digits"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "1 main st", NormalizeAddress("  1 Main   St "))
	assert.Equal(t, "1 main st", NormalizeAddress("1\tMain\nSt"))
	assert.Equal(t, "", NormalizeAddress("   "))
}
