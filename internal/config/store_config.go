package config

import (
	"path/filepath"
	"strings"
	"time"
)

type StoreType string

const (
	StoreBolt   StoreType = "bolt"
	StoreMemory StoreType = "memory"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreType() StoreType {
	switch StoreType(strings.ToLower(GetEnv("STORE", string(StoreBolt)))) {
	case StoreMemory:
		return StoreMemory
	default:
		return StoreBolt
	}
}

// GetBoltFile returns the database path, relative names are placed in the data folder.
func (Store) GetBoltFile() string {
	file := GetEnv("BOLT_FILE", "library.db")
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(EnvVars{}.GetDataFolder(), file)
}

func (Store) GetBoltTimeout() time.Duration {
	return GetDuration("BOLT_TIMEOUT", 1*time.Second)
}

// GetRedisAddr is empty when sessions should be kept in memory.
func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetInt("REDIS_DB", 0)
}
