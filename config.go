package main

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

const (
	driverPostgres = "postgres"
	driverRedis    = "redis"
	driverMemory   = "memory"
)

// Config holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres password=docker dbname=postgres sslmode=disable"
type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR,default=:9090" description:"listen address of the HTTP server"`
	StoreDriver   string `env:"STORE_DRIVER,default=postgres" description:"postgres, redis or memory"`
	Postgres      string `env:"POSTGRES" description:"the connection string for the Postgres DB"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379" description:"address of the Redis server"`
	JWTSecret     string `env:"JWT_SECRET,required" description:"HS256 key bearer tokens are signed with"`
	JWTIssuer     string `env:"JWT_ISSUER" description:"expected token issuer, empty accepts any"`
	LogLevel      string `env:"LOG_LEVEL,default=info" description:"logrus level"`
	RoleOverrides string `env:"ROLE_OVERRIDES" description:"Resource.operation=ROLE pairs, comma separated"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, err
	}
	switch cfg.StoreDriver {
	case driverPostgres:
		if cfg.Postgres == "" {
			return nil, fmt.Errorf("POSTGRES is required for store driver %q", cfg.StoreDriver)
		}
	case driverRedis, driverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}
