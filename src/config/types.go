package config

// Config represents the complete configuration for askimmigrate
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Session configuration
	Session SessionConfig `json:"session"`

	// Server configuration for the HTTP API
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// StorageConfig defines where session state lives
type StorageConfig struct {
	// DatabasePath is the sqlite database file path
	DatabasePath string `json:"database_path"`
}

// SessionConfig tunes the session manager
type SessionConfig struct {
	// HistoryWindow is how many recent turns are loaded per question
	HistoryWindow int `json:"history_window" validate:"omitempty,min=1"`

	// MaxTopics caps ongoing_topics in the session context
	MaxTopics int `json:"max_topics" validate:"omitempty,min=1"`

	// MaxVisaTypes caps visa_types_mentioned in the session context
	MaxVisaTypes int `json:"max_visa_types" validate:"omitempty,min=1"`
}

// ServerConfig defines HTTP API settings
type ServerConfig struct {
	// Addr is the listen address, host:port
	Addr string `json:"addr" validate:"omitempty,listen_addr"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" validate:"omitempty,log_level"`

	// Format is text or json
	Format string `json:"format" validate:"omitempty,log_format"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}

// Precedence defines the order of configuration loading
type Precedence struct {
	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// EnvironmentPrefix for environment variable overrides
	EnvironmentPrefix string
}
