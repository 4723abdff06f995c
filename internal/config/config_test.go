package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WIRETAP_LISTEN", "")
	t.Setenv("WIRETAP_TARGET", "")
	t.Setenv("WIRETAP_API_PORT", "")
	t.Setenv("WIRETAP_LOG_LEVEL", "")

	cfg := Load()

	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("Expected default listen addr, got: %s", cfg.ListenAddr)
	}
	if cfg.TargetAddr != "" {
		t.Errorf("Expected empty target addr, got: %s", cfg.TargetAddr)
	}
	if cfg.APIPort != 8080 {
		t.Errorf("Expected default API port 8080, got: %d", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got: %s", cfg.LogLevel)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("WIRETAP_LISTEN", "0.0.0.0:7777")
	t.Setenv("WIRETAP_TARGET", "backend:25")
	t.Setenv("WIRETAP_API_PORT", "9090")
	t.Setenv("WIRETAP_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.ListenAddr != "0.0.0.0:7777" {
		t.Errorf("Expected listen addr from env, got: %s", cfg.ListenAddr)
	}
	if cfg.TargetAddr != "backend:25" {
		t.Errorf("Expected target addr from env, got: %s", cfg.TargetAddr)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("Expected API port from env, got: %d", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level from env, got: %s", cfg.LogLevel)
	}
}

func TestLoad_InvalidAPIPortFallsBack(t *testing.T) {
	t.Setenv("WIRETAP_API_PORT", "not-a-number")

	cfg := Load()
	if cfg.APIPort != 8080 {
		t.Errorf("Expected fallback API port 8080, got: %d", cfg.APIPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  &Config{ListenAddr: "127.0.0.1:9000", TargetAddr: "example.com:80", APIPort: 8080},
		},
		{
			name:    "missing target",
			cfg:     &Config{ListenAddr: "127.0.0.1:9000", APIPort: 8080},
			wantErr: "WIRETAP_TARGET",
		},
		{
			name:    "missing listen and target",
			cfg:     &Config{APIPort: 8080},
			wantErr: "WIRETAP_LISTEN, WIRETAP_TARGET",
		},
		{
			name:    "bad port",
			cfg:     &Config{ListenAddr: "127.0.0.1:9000", TargetAddr: "example.com:80", APIPort: 70000},
			wantErr: "invalid API port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error to mention %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
