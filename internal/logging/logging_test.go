package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_writes_to_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatview.log")

	l, closer, err := New("info", path)
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	l.Info().Str("cmp", "test").Msg("visible")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"visible"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNew_rejects_bad_level(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}
