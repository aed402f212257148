package config

import (
	"os"
	"strconv"
)

const (
	appNameVar     = "APP_NAME"
	baseURLVar     = "GRAVIBASE_URL"
	projectCodeVar = "PROJECT_CODE"
	folderEnvVar   = "FOLDER"
	defaultRoleVar = "DEFAULT_ROLE"
	logLevelVar    = "LOG_LEVEL"
	httpTimeoutVar = "HTTP_TIMEOUT_SECONDS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ BackendConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "GraviSales")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDataFolder returns the folder holding the persisted session file.
func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetBaseURL returns the GraviBase base URL (e.g. "https://api.gravisales.example").
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

// GetProjectCode returns the GraviBase project the client authenticates against.
func (EnvVars) GetProjectCode() string {
	return GetEnv(projectCodeVar, "minicrm")
}

// GetDefaultRole is the role assigned to newly registered users.
func (EnvVars) GetDefaultRole() string {
	return GetEnv(defaultRoleVar, "sales")
}

func (EnvVars) GetHTTPTimeoutSeconds() int {
	return GetEnvAsInt(httpTimeoutVar, 30)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(envVar string, defaultValue int) int {
	valueStr := os.Getenv(envVar)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
