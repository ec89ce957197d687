package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landregistry/pkg/domain-errors"
)

// TestParseVerificationID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseVerificationID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVerificationID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVerificationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseVerificationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseVerificationID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, VerificationID(valid), id)
	})
}

func TestParseWalletAddress_Normalization(t *testing.T) {
	t.Run("lowercases input", func(t *testing.T) {
		addr, err := ParseWalletAddress("0xAbCdEf0123")
		require.NoError(t, err)
		assert.Equal(t, WalletAddress("0xabcdef0123"), addr)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		addr, err := ParseWalletAddress("  0xabc  ")
		require.NoError(t, err)
		assert.Equal(t, WalletAddress("0xabc"), addr)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseWalletAddress("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects inner whitespace", func(t *testing.T) {
		_, err := ParseWalletAddress("0xab cd")
		require.Error(t, err)
	})
}

func TestParseSurveyID(t *testing.T) {
	t.Run("accepts trimmed value", func(t *testing.T) {
		id, err := ParseSurveyID(" SUR-1 ")
		require.NoError(t, err)
		assert.Equal(t, SurveyID("SUR-1"), id)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseSurveyID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
