package dispatch

import "time"

// Config is an immutable snapshot. Reconfigure replaces it wholesale.
type Config struct {
	EnableLogging        bool `mapstructure:"enableLogging" json:"enableLogging" yaml:"enableLogging"`
	ValidateParams       bool `mapstructure:"validateParams" json:"validateParams" yaml:"validateParams"`
	AllowUnsafeFunctions bool `mapstructure:"allowUnsafeFunctions" json:"allowUnsafeFunctions" yaml:"allowUnsafeFunctions"`
	TimeoutMs            int  `mapstructure:"timeoutMs" json:"timeoutMs" yaml:"timeoutMs"`
	MaxConcurrentActions int  `mapstructure:"maxConcurrentActions" json:"maxConcurrentActions" yaml:"maxConcurrentActions"`
}

const (
	DefaultTimeoutMs            = 30000
	DefaultMaxConcurrentActions = 3
)

func DefaultConfig() Config {
	return Config{
		ValidateParams:       true,
		TimeoutMs:            DefaultTimeoutMs,
		MaxConcurrentActions: DefaultMaxConcurrentActions,
	}
}

// normalized replaces non-positive limits with the defaults.
func (c Config) normalized() Config {
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	if c.MaxConcurrentActions <= 0 {
		c.MaxConcurrentActions = DefaultMaxConcurrentActions
	}
	return c
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
