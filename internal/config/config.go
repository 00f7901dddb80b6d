// Package config provides server configuration from command-line flags,
// environment variables, and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the sync server.
type Options struct {
	// Addr is the server's listening address (ip:port).
	Addr string

	// DatabaseDSN is the PostgreSQL connection string.
	DatabaseDSN string

	// LogLevel is the zap log level.
	LogLevel string

	// Config is the path to an optional JSON config file.
	Config string
}

var options = &Options{}

func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "listen on ip:port")
	flag.StringVar(&options.DatabaseDSN, "d", "", "postgres dsn")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// Parse resolves configuration from flags, then the config file, then
// environment variables (highest precedence).
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.Addr = addr
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}
