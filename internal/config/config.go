// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// ServerAddress is the base URL of the remote job-board service.
	ServerAddress string

	// ListenAddress is the ip:port the dev store binds to.
	ListenAddress string

	// StoragePath is the file backing the local key-value store.
	StoragePath string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.ServerAddress, "a", "http://localhost:3000", "base URL of the job-board service")
	flag.StringVar(&options.ListenAddress, "l", "localhost:3000", "dev store listen address (ip:port)")
	flag.StringVar(&options.StoragePath, "s", "session.json", "path to the local session storage file")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
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

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.ServerAddress = serverAddress
	}

	if listenAddress := os.Getenv("LISTEN_ADDRESS"); listenAddress != "" {
		options.ListenAddress = listenAddress
	}

	if storagePath := os.Getenv("STORAGE_PATH"); storagePath != "" {
		options.StoragePath = storagePath
	}

	return options
}
