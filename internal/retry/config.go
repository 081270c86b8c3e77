package retry

import "time"

// Config holds retry configuration
type Config struct {
	Enabled      bool          // Enable/disable retry mechanism
	MaxRetries   int           // Maximum number of retry attempts
	InitialDelay time.Duration // Initial delay before first retry
	MaxDelay     time.Duration // Maximum delay between retries
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MaxRetries:   10,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
	}
}
