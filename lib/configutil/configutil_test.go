package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Limit    int    `json:"limit"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		base_url: "https://samvidha.iare.ac.in",
		username: "someone",
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{username: "22951A0501"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://samvidha.iare.ac.in",
		Username: "22951A0501",
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{username: "someone"}`)

	cfg, err := ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), testConfig{
		BaseUrl:  "https://samvidha.iare.ac.in",
		Username: "default",
		Limit:    5,
	})
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://samvidha.iare.ac.in",
		Username: "someone",
		Limit:    5,
	}, cfg)
}
