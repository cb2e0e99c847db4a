package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Check version
	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}

	// Check storage defaults
	if config.Storage.DatabasePath == "" {
		t.Error("Expected database path to be set")
	}

	// Check session defaults
	if config.Session.HistoryWindow != 10 {
		t.Errorf("Expected history window 10, got %d", config.Session.HistoryWindow)
	}
	if config.Session.MaxTopics != 5 {
		t.Errorf("Expected max topics 5, got %d", config.Session.MaxTopics)
	}
	if config.Session.MaxVisaTypes != 10 {
		t.Errorf("Expected max visa types 10, got %d", config.Session.MaxVisaTypes)
	}

	// Check server defaults
	if config.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected addr 127.0.0.1:8080, got %s", config.Server.Addr)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "negative history window",
			config: func() *Config {
				c := DefaultConfig()
				c.Session.HistoryWindow = -1
				return c
			}(),
			wantErr: true,
		},
		{
			name: "bad log level",
			config: func() *Config {
				c := DefaultConfig()
				c.Logging.Level = "verbose"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "bad listen addr",
			config: func() *Config {
				c := DefaultConfig()
				c.Server.Addr = "not an address"
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoaderMergeAndEnv(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "config.json")
	projectPath := filepath.Join(dir, ".askimmigrate.json")

	userJSON := `{"session": {"history_window": 20}, "server": {"addr": "0.0.0.0:9000"}}`
	if err := os.WriteFile(userPath, []byte(userJSON), 0644); err != nil {
		t.Fatal(err)
	}
	projectJSON := `{"server": {"addr": "127.0.0.1:7777"}}`
	if err := os.WriteFile(projectPath, []byte(projectJSON), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ASKIMMIGRATE_DB_PATH", filepath.Join(dir, "override.db"))

	loader := NewLoader(Precedence{
		UserConfig:        userPath,
		ProjectConfig:     projectPath,
		EnvironmentPrefix: "ASKIMMIGRATE",
	})

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// User value survives where the project file is silent.
	if config.Session.HistoryWindow != 20 {
		t.Errorf("Expected history window 20, got %d", config.Session.HistoryWindow)
	}
	// Project file wins over the user file.
	if config.Server.Addr != "127.0.0.1:7777" {
		t.Errorf("Expected addr 127.0.0.1:7777, got %s", config.Server.Addr)
	}
	// Environment wins over both.
	if config.Storage.DatabasePath != filepath.Join(dir, "override.db") {
		t.Errorf("Expected env override for database path, got %s", config.Storage.DatabasePath)
	}
	// Untouched values keep their defaults.
	if config.Session.MaxTopics != 5 {
		t.Errorf("Expected default max topics, got %d", config.Session.MaxTopics)
	}
}

func TestLoaderMissingFilesFallBackToDefaults(t *testing.T) {
	loader := NewLoader(Precedence{
		UserConfig:    filepath.Join(t.TempDir(), "does-not-exist.json"),
		ProjectConfig: "",
	})

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Session.HistoryWindow != 10 {
		t.Errorf("Expected default history window, got %d", config.Session.HistoryWindow)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	loader := NewLoader(Precedence{})
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	config := DefaultConfig()
	config.Server.Addr = "127.0.0.1:6060"

	if err := loader.SaveFile(config, path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	loaded, err := loader.loadFile(path)
	if err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if loaded.Server.Addr != "127.0.0.1:6060" {
		t.Errorf("Expected saved addr to round-trip, got %s", loaded.Server.Addr)
	}
}
