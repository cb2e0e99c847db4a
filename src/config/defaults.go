package config

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Storage: StorageConfig{
			DatabasePath: GetDefaultStoragePaths().DatabasePath,
		},
		Session: SessionConfig{
			HistoryWindow: 10,
			MaxTopics:     5,
			MaxVisaTypes:  10,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPrecedence returns the standard config file precedence: the
// user's XDG config first, then a project-local override.
func DefaultPrecedence() Precedence {
	return Precedence{
		UserConfig:        GetDefaultConfigPath(),
		ProjectConfig:     ".askimmigrate.json",
		EnvironmentPrefix: "ASKIMMIGRATE",
	}
}
