package config

import (
	"os"
	"sync"

	"github.com/datalayer/datalayer-go/pkg/logger"
)

// Singleton value - should only be written to by GetConfig and the test hooks.
var appConfig *Config

var lock = &sync.RWMutex{}

// SetSingletonConfig allows tests to pre-initialize the singleton with test data.
// This prevents the singleton from loading the real config file during tests.
func SetSingletonConfig(cfg *Config) {
	lock.Lock()
	defer lock.Unlock()
	appConfig = cfg
}

// ResetSingleton clears the singleton - useful for test cleanup
func ResetSingleton() {
	lock.Lock()
	defer lock.Unlock()
	appConfig = nil
}

// GetConfig returns the application configuration, loading it on first use.
func GetConfig() *Config {
	// First check with read lock for performance
	lock.RLock()
	if appConfig != nil {
		defer lock.RUnlock()
		return appConfig
	}
	lock.RUnlock()

	// If config is nil, acquire write lock and double-check
	lock.Lock()
	defer lock.Unlock()
	if appConfig == nil {
		config, err := LoadOrCreateConfig()
		if err != nil {
			logger.Errorf("error loading configuration: %v", err)
			os.Exit(1)
		}
		appConfig = config
	}
	return appConfig
}
