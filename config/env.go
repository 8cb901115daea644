package config

import (
	"os"
	"strings"
)

// EnvKey selects which environment-specific config files are loaded.
const EnvKey = "ASSETPIPE_ENV"

type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
	EnvTest        Env = "test"
)

// ParseEnv maps common spellings onto an Env. Unknown values mean
// development.
func ParseEnv(env string) Env {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return EnvProduction
	case "test", "testing":
		return EnvTest
	default:
		return EnvDevelopment
	}
}

// CurrentEnv reads EnvKey from the process environment.
func CurrentEnv() Env {
	return ParseEnv(os.Getenv(EnvKey))
}

// aliases lists the extra file suffixes accepted for env.
func (e Env) aliases() []string {
	switch e {
	case EnvProduction:
		return []string{"pro", "prod", "production"}
	case EnvTest:
		return []string{"test"}
	default:
		return []string{"dev", "development"}
	}
}
