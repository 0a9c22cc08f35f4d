package config

import "time"

type Config interface {
	EnvConfig
	StoreConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetReadTimeout() time.Duration
	GetWriteTimeout() time.Duration
	GetShutdownTimeout() time.Duration
}

type StoreConfig interface {
	GetStoreType() StoreType
	GetBoltFile() string
	GetBoltTimeout() time.Duration
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Store
	Security
}

func New() Config {
	return mainConfig{}
}
