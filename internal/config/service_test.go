package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmptyServiceConfigDefaults(t *testing.T) {
	cfg := EmptyServiceConfig()

	if cfg.GetTopK() != 3 {
		t.Errorf("GetTopK() = %d, want 3", cfg.GetTopK())
	}
	if cfg.GetFollowUpLimit() != 5 {
		t.Errorf("GetFollowUpLimit() = %d, want 5", cfg.GetFollowUpLimit())
	}
	if cfg.GetTokenTTL() != 30*24*time.Hour {
		t.Errorf("GetTokenTTL() = %v, want 720h", cfg.GetTokenTTL())
	}
	if cfg.GetMinPasswordLength() != 8 {
		t.Errorf("GetMinPasswordLength() = %d, want 8", cfg.GetMinPasswordLength())
	}
	if cfg.GetReadTimeout() != 10*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 10s", cfg.GetReadTimeout())
	}
	if cfg.GetWriteTimeout() != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", cfg.GetWriteTimeout())
	}
	if cfg.GetShutdownTimeout() != 5*time.Second {
		t.Errorf("GetShutdownTimeout() = %v, want 5s", cfg.GetShutdownTimeout())
	}
	if cfg.GetVerbose() != false {
		t.Errorf("GetVerbose() = %v, want false", cfg.GetVerbose())
	}
}

func TestLoadServiceConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "top_k": 5,
  "follow_up_limit": 2,
  "token_ttl": "24h",
  "min_password_length": 12,
  "read_timeout": "15s",
  "verbose": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadServiceConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetTopK() != 5 {
		t.Errorf("GetTopK() = %d, want 5", cfg.GetTopK())
	}
	if cfg.GetFollowUpLimit() != 2 {
		t.Errorf("GetFollowUpLimit() = %d, want 2", cfg.GetFollowUpLimit())
	}
	if cfg.GetTokenTTL() != 24*time.Hour {
		t.Errorf("GetTokenTTL() = %v, want 24h", cfg.GetTokenTTL())
	}
	if cfg.GetMinPasswordLength() != 12 {
		t.Errorf("GetMinPasswordLength() = %d, want 12", cfg.GetMinPasswordLength())
	}
	if cfg.GetReadTimeout() != 15*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 15s", cfg.GetReadTimeout())
	}
	if cfg.GetVerbose() != true {
		t.Errorf("GetVerbose() = %v, want true", cfg.GetVerbose())
	}

	// Fields omitted from the file keep their defaults.
	if cfg.GetWriteTimeout() != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", cfg.GetWriteTimeout())
	}
}

func TestLoadServiceConfigMissing(t *testing.T) {
	_, err := LoadServiceConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadServiceConfigBadExtension(t *testing.T) {
	_, err := LoadServiceConfig("/tmp/config.yaml")
	if err == nil {
		t.Error("Expected error for non-json extension, got nil")
	}
}

func TestLoadServiceConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "top_k": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadServiceConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ServiceConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     EmptyServiceConfig(),
			wantErr: false,
		},
		{
			name:    "valid top_k",
			cfg:     &ServiceConfig{TopK: ptrInt(1)},
			wantErr: false,
		},
		{
			name:    "zero top_k",
			cfg:     &ServiceConfig{TopK: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative follow_up_limit",
			cfg:     &ServiceConfig{FollowUpLimit: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero follow_up_limit",
			cfg:     &ServiceConfig{FollowUpLimit: ptrInt(0)},
			wantErr: false,
		},
		{
			name:    "zero min_password_length",
			cfg:     &ServiceConfig{MinPasswordLength: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "bad token_ttl",
			cfg:     &ServiceConfig{TokenTTL: ptrString("not a duration")},
			wantErr: true,
		},
		{
			name:    "good token_ttl",
			cfg:     &ServiceConfig{TokenTTL: ptrString("12h")},
			wantErr: false,
		},
		{
			name:    "bad shutdown_timeout",
			cfg:     &ServiceConfig{ShutdownTimeout: ptrString("soon")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationFallbackOnParseError(t *testing.T) {
	cfg := &ServiceConfig{TokenTTL: ptrString("bogus")}
	if cfg.GetTokenTTL() != 30*24*time.Hour {
		t.Errorf("GetTokenTTL() = %v, want default 720h", cfg.GetTokenTTL())
	}
}

func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }
