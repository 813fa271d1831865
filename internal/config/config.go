// Package config holds the env-var names used across components and
// the defaults applied when they are unset.
package config

import "github.com/spf13/viper"

const (
	// server
	EnvPort       = "PORT"
	EnvCORSOrigin = "CORS_ORIGIN"
	// stores
	EnvDatabaseURL = "DATABASE_URL"
	// auth
	EnvSessionSecret = "SESSION_SECRET"
	// logging
	EnvVerbose = "CONFESSIT_VERBOSE"
)

// Load wires viper to the process environment and applies defaults.
// A .env file, if any, must already be loaded (main does that via
// godotenv) so the values are visible here.
func Load() {
	viper.AutomaticEnv()
	viper.SetDefault(EnvPort, "8080")
	viper.SetDefault(EnvCORSOrigin, "*")
	viper.SetDefault(EnvDatabaseURL, "sqlite://confessit.db")
}
