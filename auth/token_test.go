package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Generate_And_Validate_Token(t *testing.T) {
	req := require.New(t)

	// Given
	tokens := NewTokens("test-secret", time.Hour)

	// When
	signed, err := tokens.Generate("alice")
	req.NoError(err)
	claims, err := tokens.Validate(signed)

	// Then
	req.NoError(err)
	req.Equal("alice", claims.UserID)
	req.Equal("chat-relay", claims.Issuer)
}

func Test_Wrong_Secret_Is_Rejected(t *testing.T) {
	req := require.New(t)

	// Given
	issuer := NewTokens("secret-one", time.Hour)
	verifier := NewTokens("secret-two", time.Hour)
	signed, err := issuer.Generate("alice")
	req.NoError(err)

	// When
	claims, err := verifier.Validate(signed)

	// Then
	req.Error(err)
	req.Nil(claims)
}

func Test_Expired_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)

	// Given
	tokens := NewTokens("test-secret", -time.Minute)
	signed, err := tokens.Generate("alice")
	req.NoError(err)

	// When
	claims, err := tokens.Validate(signed)

	// Then
	req.Error(err)
	req.Nil(claims)
}

func Test_Garbage_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)

	// Given
	tokens := NewTokens("test-secret", time.Hour)

	// When
	claims, err := tokens.Validate("not-a-token")

	// Then
	req.Error(err)
	req.Nil(claims)
}
