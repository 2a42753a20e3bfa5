package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/store"
	"smartx-backend/lib/configutil"
	"smartx-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExampleConfig(t *testing.T) {
	cfg, err := configutil.ReadConfig[Config]("../config.json5")
	require.NoError(t, err)

	opts := cfg.Portal.options(cfg.Markers)
	expected := samvidha.Options{
		BaseUrl:           samvidha.DefaultBaseUrl,
		Markers:           samvidha.DefaultMarkers(),
		LoginTimeout:      10 * time.Second,
		FetchTimeout:      15 * time.Second,
		AjaxTimeout:       10 * time.Second,
		RequestsPerSecond: 5,
	}
	if diff := cmp.Diff(expected, opts); diff != "" {
		t.Fatal("unexpected options", diff)
	}
	require.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLocalConfigOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		portal: {fetch_timeout: 15},
		credentials: {username: "", password: ""},
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		credentials: {username: "21951A0501", password: "secret"},
	}`), 0600))

	cfg, err := configutil.ReadConfig[Config](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, Credentials{Username: "21951A0501", Password: "secret"}, cfg.Credentials)
	require.Equal(t, 15, cfg.Portal.FetchTimeout)
}

func TestMemoryBackendByDefault(t *testing.T) {
	backend, err := newBackend(context.Background(), CacheConfig{})
	require.NoError(t, err)
	_, ok := backend.(store.MemoryBackend)
	require.True(t, ok)

	_, err = newBackend(context.Background(), CacheConfig{Backend: "sqlite"})
	require.Error(t, err)
}

func useConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json5")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	}
	previous := *configPath
	*configPath = path
	t.Cleanup(func() { *configPath = previous })
}

func TestLoginReturnsErrors(t *testing.T) {
	portal := testutil.SetupPortal(t, testutil.PortalParams{
		Username: "21951A0501",
		Password: "hunter2",
	})

	cases := []struct {
		name   string
		config string
		is     error
	}{
		{
			name:   "missing config",
			config: "",
			is:     os.ErrNotExist,
		},
		{
			name: "unknown cache backend",
			config: fmt.Sprintf(`{
				portal: {base_url: "%s"},
				cache: {backend: "sqlite"},
			}`, portal.Url()),
		},
		{
			name: "wrong password",
			config: fmt.Sprintf(`{
				portal: {base_url: "%s", requests_per_second: 1000},
				credentials: {username: "21951A0501", password: "wrong"},
			}`, portal.Url()),
			is: samvidha.ErrInvalidCredentials,
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			useConfig(t, test.config)
			_, err := login(context.Background())
			require.Error(t, err)
			if test.is != nil {
				require.ErrorIs(t, err, test.is)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	portal := testutil.SetupPortal(t, testutil.PortalParams{
		Username: "21951A0501",
		Password: "hunter2",
	})
	useConfig(t, fmt.Sprintf(`{
		portal: {base_url: "%s", requests_per_second: 1000},
		credentials: {username: "21951A0501", password: "hunter2"},
	}`, portal.Url()))

	sess, err := login(context.Background())
	require.NoError(t, err)
	require.True(t, sess.service.LoggedIn("21951A0501"))

	sess.close()
	require.False(t, sess.service.LoggedIn("21951A0501"))
}
