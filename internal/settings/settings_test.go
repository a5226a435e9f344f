package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railway.tracker.org/internal/appconf"
)

func openTest(t *testing.T, language string) *Settings {
	t.Helper()
	s, err := Open(Config{Path: ":memory:", Env: appconf.Test, Language: language}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDefaults(t *testing.T) {
	s := openTest(t, "")

	assert.Equal(t, "en", s.Language())
	assert.False(t, s.DeleteOld())
	assert.Equal(t, 24*time.Hour, s.DeleteOldAfter())

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyLanguage:       "en",
		KeyDeleteOld:      "false",
		KeyDeleteOldAfter: "24h",
	}, all)
}

func TestConfiguredLanguageDefault(t *testing.T) {
	s := openTest(t, "de")
	assert.Equal(t, "de", s.Language())

	require.NoError(t, s.Set(KeyLanguage, "fr"))
	assert.Equal(t, "fr", s.Language())
}

func TestSetAndGet(t *testing.T) {
	s := openTest(t, "")

	require.NoError(t, s.Set(KeyDeleteOld, "true"))
	require.NoError(t, s.Set(KeyDeleteOldAfter, "48h"))
	require.NoError(t, s.Set(KeyDeleteOldAfter, "72h"))

	assert.True(t, s.DeleteOld())
	assert.Equal(t, 72*time.Hour, s.DeleteOldAfter())

	value, err := s.Get(KeyDeleteOld)
	require.NoError(t, err)
	assert.Equal(t, "true", value)
}

func TestRejectsInvalidValues(t *testing.T) {
	s := openTest(t, "")

	tests := []struct {
		key, value string
	}{
		{KeyDeleteOld, "sometimes"},
		{KeyDeleteOldAfter, "soon"},
		{KeyDeleteOldAfter, "-1h"},
		{KeyLanguage, "x"},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, s.Set(tt.key, tt.value), ErrInvalidValue, "%s=%s", tt.key, tt.value)
	}

	err := s.Set("theme", "dark")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "delete_old, delete_old_after, language")
	_, err = s.Get("theme")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestTestEnvRequiresMemory(t *testing.T) {
	_, err := Open(Config{Path: "settings.db", Env: appconf.Test}, nil)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{KeyDeleteOld, KeyDeleteOldAfter, KeyLanguage}, Keys())
}
