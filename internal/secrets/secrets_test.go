// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geminiEnv = "GEMINI_API_KEY"

// secretsDir lays out a .secrets directory the way a checkout would.
func secretsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".secrets")
	require.NoError(t, os.Mkdir(dir, 0o700))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoadGeminiKey(t *testing.T) {
	dir := secretsDir(t, map[string]string{
		GeminiAPIKey: "AIzaSy-test-key\n",
		".gitignore": "*\n",
		"README":     "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old"), 0o700))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Set{GeminiAPIKey: "AIzaSy-test-key"}, got)
}

func TestLoadMissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), ".secrets"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadBlankKeyFile(t *testing.T) {
	got, err := Load(secretsDir(t, map[string]string{GeminiAPIKey: " \n\t"}))
	require.NoError(t, err)
	_, ok := got[GeminiAPIKey]
	assert.False(t, ok, "a blank key file must not shadow the environment")
}

func TestLoadNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secrets")
	require.NoError(t, os.WriteFile(path, []byte("key"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := secretsDir(t, map[string]string{GeminiAPIKey: "AIzaSy-test-key"})
	locked := filepath.Join(dir, "proxy-token")
	require.NoError(t, os.WriteFile(locked, []byte("tok"), 0o000))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Set{GeminiAPIKey: "AIzaSy-test-key"}, got)
}

func TestResolveGeminiKeyPrecedence(t *testing.T) {
	withFile, err := Load(secretsDir(t, map[string]string{GeminiAPIKey: "from-file"}))
	require.NoError(t, err)
	withBlankFile, err := Load(secretsDir(t, map[string]string{GeminiAPIKey: "\n"}))
	require.NoError(t, err)

	tests := []struct {
		name     string
		set      Set
		explicit string
		env      string
		want     string
	}{
		{name: "config value wins over file and env", set: withFile, explicit: "from-config", env: "from-env", want: "from-config"},
		{name: "file wins over env", set: withFile, env: "from-env", want: "from-file"},
		{name: "env used without a key file", set: Set{}, env: "  from-env\n", want: "from-env"},
		{name: "blank key file falls through to env", set: withBlankFile, env: "from-env", want: "from-env"},
		{name: "nothing configured", set: Set{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(geminiEnv, tt.env)
			assert.Equal(t, tt.want, tt.set.Resolve(tt.explicit, GeminiAPIKey, geminiEnv))
		})
	}
}

func TestResolveWithoutEnvName(t *testing.T) {
	t.Setenv(geminiEnv, "from-env")
	assert.Equal(t, "", Set{}.Resolve("", GeminiAPIKey, ""))
}
