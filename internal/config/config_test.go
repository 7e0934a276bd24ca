package config

import (
	"log/slog"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "ok",
			env: map[string]string{
				"DB_DRIVER":      "sqlite",
				"DB_DSN":         "contacts.db",
				"SESSION_SECRET": "0123456789abcdef0123456789abcdef",
			},
		},
		{
			name: "missing dsn",
			env: map[string]string{
				"DB_DSN":         "",
				"SESSION_SECRET": "0123456789abcdef0123456789abcdef",
			},
			wantErr: true,
		},
		{
			name: "short secret",
			env: map[string]string{
				"DB_DSN":         "host=localhost",
				"SESSION_SECRET": "short",
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			env: map[string]string{
				"DB_DRIVER":      "oracle",
				"DB_DSN":         "x",
				"SESSION_SECRET": "0123456789abcdef0123456789abcdef",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", "postgres")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cfg.ServerPort != "8080" {
				t.Errorf("ServerPort = %q, want default 8080", cfg.ServerPort)
			}
			if cfg.MediaRoot != "./media" {
				t.Errorf("MediaRoot = %q", cfg.MediaRoot)
			}
		})
	}
}

func TestConfig_LogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		c := Config{LogLevelName: in}
		if got := c.LogLevel(); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
