package main

import (
	"fmt"
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Bind         string `toml:"bind"`
	Debug        bool   `toml:"debug"`
	DatabasePath string `toml:"database_path"`
	BaseURL      string `toml:"base_url"`
}

var config Config

// Default config
func defaultConfig() Config {
	return Config{
		Bind:         "0.0.0.0:3001",
		DatabasePath: "./pasteforge.db",
		BaseURL:      "http://localhost:3001",
	}
}

// GenerateConfig resolves the effective configuration. Precedence, lowest to
// highest: defaults, config file, environment, command-line flags (flag
// overrides are applied by the caller, which owns the flag set).
func GenerateConfig(configFile string, configFileSet bool) Config {
	var cfg Config

	if configFile == "" {
		configFile = "config.toml"
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if configFileSet {
			log.Fatalf("Config file %v specified but not found.\n", configFile)
		}
		cfg = defaultConfig()
	} else if err != nil {
		log.Fatalf("Error accessing config file %v: %v\n", configFile, err)
	} else {
		fmt.Printf("Loading config from %v\n", configFile)
		cfg = loadConfig(configFile)
	}

	// Override with environment variables (if set)
	if envBind := os.Getenv("PF_BIND"); envBind != "" {
		cfg.Bind = envBind
	}
	if envDB := os.Getenv("PF_DATABASE_PATH"); envDB != "" {
		cfg.DatabasePath = envDB
	}
	if envDebug := os.Getenv("PF_DEBUG"); envDebug == "true" || envDebug == "1" {
		cfg.Debug = true
	}
	if envBase := os.Getenv("PF_BASE_URL"); envBase != "" {
		cfg.BaseURL = envBase
	}

	return cfg
}

func loadConfig(configFile string) Config {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
		log.Fatal(err)
	}

	return cfg
}
