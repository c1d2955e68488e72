package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "atiende/pkg/domain-errors"
)

func TestParseReportID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseReportID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseReportID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseReportID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("round-trips a valid UUID", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseReportID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, raw.String(), parsed.String())
		assert.False(t, parsed.IsNil())
	})
}

func TestParseUserID(t *testing.T) {
	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseUserID("'; DROP TABLE usuarios;--")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseUserID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, raw.String(), parsed.String())
	})
}

func TestNewIDsAredistinct(t *testing.T) {
	assert.NotEqual(t, NewReportID(), NewReportID())
	assert.NotEqual(t, NewClosureID().String(), NewAssignmentID().String())
}
