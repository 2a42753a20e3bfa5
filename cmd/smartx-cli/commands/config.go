package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/telemetry"
	"smartx-backend/internal/scrapers/samvidha"
	"smartx-backend/internal/store"
	"smartx-backend/internal/student"
	"smartx-backend/lib/configutil"
)

type PortalConfig struct {
	BaseUrl           string  `json:"base_url"`
	LoginTimeout      int     `json:"login_timeout"`
	FetchTimeout      int     `json:"fetch_timeout"`
	AjaxTimeout       int     `json:"ajax_timeout"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

type CacheConfig struct {
	// Backend is either "memory" or "redis".
	Backend     string `json:"backend"`
	RedisAddr   string `json:"redis_addr"`
	RedisPrefix string `json:"redis_prefix"`
	MemorySize  int    `json:"memory_size"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Portal      PortalConfig     `json:"portal"`
	Markers     samvidha.Markers `json:"markers"`
	Cache       CacheConfig      `json:"cache"`
	Credentials Credentials      `json:"credentials"`
	Telemetry   telemetry.Config `json:"telemetry"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c PortalConfig) options(markers samvidha.Markers) samvidha.Options {
	return samvidha.Options{
		BaseUrl:           c.BaseUrl,
		Markers:           markers,
		LoginTimeout:      seconds(c.LoginTimeout),
		FetchTimeout:      seconds(c.FetchTimeout),
		AjaxTimeout:       seconds(c.AjaxTimeout),
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
	}
}

func newBackend(ctx context.Context, cfg CacheConfig) (store.CacheBackend, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryBackend(cfg.MemorySize, store.Window), nil
	case "redis":
		backend := store.NewRedisBackend(store.NewRedisClient(cfg.RedisAddr), cfg.RedisPrefix, store.Window)
		if !backend.Healthy(ctx) {
			return nil, fmt.Errorf("failed to reach redis at %s", cfg.RedisAddr)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown cache backend '%s'", cfg.Backend)
	}
}

// session is a logged in service, it is torn down by close.
type session struct {
	service     student.Service
	credentials Credentials
	close       func()
}

func (s session) userId() string {
	return s.credentials.Username
}

// relogin replaces the session of the user with a fresh one.
func (s session) relogin(ctx context.Context) error {
	slog.Info("logging in again", "username", s.credentials.Username)
	return s.service.Login(ctx, s.credentials.Username, s.credentials.Password)
}

func shutdownTelemetry(otel telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := otel.Shutdown(ctx); err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}

// login reads the config, sets up telemetry and logs into the portal. On failure
// telemetry is already flushed.
func login(ctx context.Context) (session, error) {
	cfg, err := configutil.ReadConfigWithDefaults(*configPath, Config{
		Markers: samvidha.DefaultMarkers(),
		Cache:   CacheConfig{Backend: "memory", RedisPrefix: "smartx"},
	})
	if err != nil {
		return session{}, fmt.Errorf("failed to read config: %w", err)
	}

	otel, err := telemetry.Setup(ctx, "smartx-cli", cfg.Telemetry)
	if err != nil {
		return session{}, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	service, err := newService(ctx, cfg)
	if err != nil {
		shutdownTelemetry(otel)
		return session{}, err
	}

	sess := session{
		service:     service,
		credentials: cfg.Credentials,
		close: func() {
			service.Logout(context.Background(), cfg.Credentials.Username)
			shutdownTelemetry(otel)
		},
	}

	slog.Info("logging in", "username", cfg.Credentials.Username)
	err = service.Login(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
	if err != nil {
		sess.close()
		return session{}, fmt.Errorf("failed to login: %w", err)
	}
	return sess, nil
}

func newService(ctx context.Context, cfg Config) (student.Service, error) {
	tel := telemetry.SlogAPI{}
	opts := cfg.Portal.options(cfg.Markers)
	if *dumpDir != "" {
		out, err := telemetry.NewFilesystemOutput(*dumpDir)
		if err != nil {
			return student.Service{}, fmt.Errorf("failed to create dump directory: %w", err)
		}
		opts.Dump = out
	}

	client, err := samvidha.NewClient(opts, tel)
	if err != nil {
		return student.Service{}, fmt.Errorf("failed to create portal client: %w", err)
	}
	backend, err := newBackend(ctx, cfg.Cache)
	if err != nil {
		return student.Service{}, err
	}

	clock := chrono.NewStandardTime()
	sessions := store.NewMemorySessions()
	cache := store.NewCache(sessions, backend, clock, tel)
	return student.NewService(client, sessions, cache, clock, tel), nil
}
