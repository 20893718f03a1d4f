package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

type level string

const (
	levelDebug level = "debug"
	levelInfo  level = "info"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(map[string]level{"debug": levelDebug, "info": levelInfo, "very_loud": levelDebug}, levelInfo)

	tests := []struct {
		name     string
		input    string
		expected level
	}{
		{"exact match", "debug", levelDebug},
		{"case insensitive", "DEBUG", levelDebug},
		{"with spaces", "  info ", levelInfo},
		{"dash and underscore", "very-loud", levelDebug},
		{"unknown falls back", "verbose", levelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := NewNormalizer(map[string]level{"debug": levelDebug, "info": levelInfo}, levelInfo)

	got, err := n.NormalizeWithError(" Debug")
	require.NoError(t, err)
	assert.Equal(t, levelDebug, got)

	got, err = n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, levelInfo, got)

	_, err = n.NormalizeWithError("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid options: debug, info")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Equal(t, []string{"debug", "info"}, n.ValidKeys())
}
