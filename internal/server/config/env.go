package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. Empty variables are
// treated as unset. ACCESS_TOKEN_EXPIRE_MINUTES is an integer number of
// minutes.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(name string) string {
		v, _ := lookup(name)
		return v
	}

	setString(&config.HTTPAddr, get("HTTP_ADDR"))
	setString(&config.DatabaseDSN, get("DATABASE_URL"))
	setString(&config.SecretKey, get("SECRET_KEY"))
	setString(&config.Algorithm, get("ALGORITHM"))
	setString(&config.PasswordHashScheme, get("PASSWORD_HASH_SCHEME"))
	setString(&config.RedisURL, get("REDIS_URL"))
	setString(&config.BootstrapAdminUsername, get("BOOTSTRAP_ADMIN_USERNAME"))
	setString(&config.BootstrapAdminPassword, get("BOOTSTRAP_ADMIN_PASSWORD"))
	setString(&config.LogLevel, get("LOG_LEVEL"))

	if v := get("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	if v := get("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BCRYPT_COST: %w", err)
		}
		config.BcryptCost = cost
	}
	return nil
}
