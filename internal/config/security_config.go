package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() []byte
	GetMaxSessionAge() time.Duration
	GetMinPasswordLength() int
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionSecret returns the HMAC key for session tokens. The development
// default must be overridden in any shared deployment.
func (Security) GetSessionSecret() []byte {
	return []byte(GetEnv("SESSION_SECRET", "dev-only-session-secret"))
}

func (Security) GetMaxSessionAge() time.Duration {
	return GetDuration("SESSION_MAX_AGE", 24*time.Hour)
}

func (Security) GetMinPasswordLength() int {
	return GetInt("MIN_PASSWORD_LENGTH", 6)
}
