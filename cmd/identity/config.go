package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/identity/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultRedisAddr    = "localhost:6379"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the identity service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis server keeping refresh tokens and the access blacklist
	RedisAddr string

	// Signing secrets, one per token kind
	// Tokens signed with one secret never verify against the other
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Bcrypt cost for password hashing, zero means library default
	BcryptCost int

	// Replace the refresh token on every refresh call
	RotateRefresh bool

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		RedisAddr:   defaultRedisAddr,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	// Set option if value parses as duration
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	setInt := func(o *int) func(value string) {
		return func(value string) {
			if n, err := strconv.Atoi(value); err == nil {
				*o = n
			}
		}
	}

	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if b, err := strconv.ParseBool(value); err == nil {
				*o = b
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":        setString(&c.ListenAddr),
		"DATABASE_URI":       setString(&c.DatabaseDSN),
		"REDIS_ADDR":         setString(&c.RedisAddr),
		"JWT_ACCESS_SECRET":  setString(&c.AccessSecret),
		"JWT_REFRESH_SECRET": setString(&c.RefreshSecret),
		"JWT_ACCESS_TTL":     setDuration(&c.AccessTTL),
		"JWT_REFRESH_TTL":    setDuration(&c.RefreshTTL),
		"BCRYPT_COST":        setInt(&c.BcryptCost),
		"ROTATE_REFRESH":     setBool(&c.RotateRefresh),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("identity", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis server address")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret key for access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key for refresh tokens")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt cost for password hashing")
	fs.BoolVar(&c.RotateRefresh, "rotate-refresh", c.RotateRefresh, "Issue a new refresh token on every refresh")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
