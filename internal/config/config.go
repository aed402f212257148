package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	BackendConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetDataFolder() string
	GetLogLevel() string
}

type BackendConfig interface {
	GetBaseURL() string
	GetProjectCode() string
	GetDefaultRole() string
	GetHTTPTimeoutSeconds() int
}

type mainConfig struct {
	EnvVars
}

// New loads a .env file if one is present and returns the env-backed config.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
