package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		cfg         Config
		wantAddr    string
		wantBackend string
	}{
		{
			name:        "memory by default",
			cfg:         Config{Addr: "0.0.0.0:8080"},
			wantAddr:    "0.0.0.0:8080",
			wantBackend: BackendMemory,
		},
		{
			name:        "platform port and redis",
			env:         map[string]string{"PORT": "9000", "REDIS_URL": "redis://localhost:6379/0"},
			cfg:         Config{Addr: "0.0.0.0:8080"},
			wantAddr:    "0.0.0.0:9000",
			wantBackend: BackendRedis,
		},
		{
			name:        "database selects postgres sessions",
			env:         map[string]string{"DATABASE_URL": "postgres://localhost/honey"},
			cfg:         Config{Addr: "127.0.0.1:1"},
			wantAddr:    "127.0.0.1:1",
			wantBackend: BackendPostgres,
		},
		{
			name:        "explicit backend kept",
			env:         map[string]string{"REDIS_URL": "redis://localhost:6379/0"},
			cfg:         Config{Addr: "0.0.0.0:8080", SessionBackend: BackendMemory},
			wantAddr:    "0.0.0.0:8080",
			wantBackend: BackendMemory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"PORT", "REDIS_URL", "DATABASE_URL"} {
				t.Setenv(k, tt.env[k])
			}
			cfg := tt.cfg
			cfg.applyPlatformDefaults()
			assert.Equal(t, tt.wantAddr, cfg.Addr)
			assert.Equal(t, tt.wantBackend, cfg.SessionBackend)
		})
	}
}

func TestValidate(t *testing.T) {
	limit := RateLimitConfig{Max: 10, Window: time.Minute}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{SessionBackend: BackendMemory, RateLimit: limit}},
		{name: "redis without url", cfg: Config{SessionBackend: BackendRedis, RateLimit: limit}, wantErr: true},
		{name: "postgres without url", cfg: Config{SessionBackend: BackendPostgres, RateLimit: limit}, wantErr: true},
		{name: "postgres", cfg: Config{SessionBackend: BackendPostgres, DatabaseURL: "postgres://x", RateLimit: limit}},
		{name: "unknown backend", cfg: Config{SessionBackend: "etcd", RateLimit: limit}, wantErr: true},
		{name: "zero rate limit", cfg: Config{SessionBackend: BackendMemory}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
