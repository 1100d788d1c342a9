package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Hash_And_Compare_Password(t *testing.T) {
	req := require.New(t)

	// Given
	hash, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	// When
	match, err := ComparePassword("correct horse battery staple", hash)

	// Then
	req.NoError(err)
	req.True(match)
}

func Test_Wrong_Password_Does_Not_Match(t *testing.T) {
	req := require.New(t)

	// Given
	hash, err := HashPassword("first")
	req.NoError(err)

	// When
	match, err := ComparePassword("second", hash)

	// Then
	req.NoError(err)
	req.False(match)
}

func Test_Same_Password_Hashes_Differently(t *testing.T) {
	req := require.New(t)

	// Given
	first, err := HashPassword("same")
	req.NoError(err)
	second, err := HashPassword("same")
	req.NoError(err)

	// Then: a fresh salt every time
	req.NotEqual(first, second)
}

func Test_Malformed_Hash_Returns_Error(t *testing.T) {
	req := require.New(t)

	// When
	match, err := ComparePassword("whatever", "not-an-argon2-hash")

	// Then
	req.Error(err)
	req.False(match)
}
