// Package logger wraps zap behind a small key/value logging interface.
package logger

// Level represents the logging level.
type Level string

const (
	// DebugLevel logs debug messages.
	DebugLevel Level = "debug"
	// InfoLevel logs info messages.
	InfoLevel Level = "info"
	// WarnLevel logs warning messages.
	WarnLevel Level = "warn"
	// ErrorLevel logs error messages.
	ErrorLevel Level = "error"
	// FatalLevel logs fatal messages and exits.
	FatalLevel Level = "fatal"
)

// Encoding values accepted by Config.Encoding.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level.
	Level Level `mapstructure:"level" yaml:"level"`
	// Development enables development mode (colored levels, short timestamps).
	Development bool `mapstructure:"development" yaml:"development"`
	// Encoding is either "json" or "console".
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
}
