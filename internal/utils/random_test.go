package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUsernameFromChineseName(t *testing.T) {
	for range 20 {
		username := GenerateUsernameFromChineseName(GenerateRandomChineseName())

		assert.Regexp(t, regexp.MustCompile(`^[a-z]+[0-9]{1,3}$`), username)
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	assert.Len(t, []rune(GenerateRandomPassword(12)), 12)
	assert.Empty(t, GenerateRandomPassword(0))
}
