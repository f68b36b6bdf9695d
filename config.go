package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr      = ":8080"
	defaultDatabase  = "jot.db"
	defaultPublicURL = "http://localhost:8080"
	defaultUsername  = "admin"
	defaultPassword  = "default"
	defaultSecretKey = "insecure-default-secret"
)

type Config struct {
	Addr          string `yaml:"addr"`
	DatabasePath  string `yaml:"database_path"`
	PublicBaseURL string `yaml:"public_base_url"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	SecretKey     string `yaml:"secret_key"`
	Debug         bool   `yaml:"debug"`
}

// loadConfig builds the configuration from defaults, then the process
// environment (a .env file is honored), then an optional YAML settings
// file pointed to by JOT_SETTINGS.
func loadConfig() (Config, error) {
	godotenv.Load()

	cfg := Config{
		Addr:          defaultAddr,
		DatabasePath:  defaultDatabase,
		PublicBaseURL: defaultPublicURL,
		AdminUsername: defaultUsername,
		AdminPassword: defaultPassword,
		SecretKey:     defaultSecretKey,
	}
	applyEnv(&cfg)

	if path := os.Getenv("JOT_SETTINGS"); path != "" {
		if err := applySettingsFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if cfg.AdminPassword == defaultPassword {
		log.Println("WARNING: JOT_ADMIN_PASS not set, using default password")
	}
	if cfg.SecretKey == defaultSecretKey {
		log.Println("WARNING: JOT_SECRET_KEY not set, sessions are signed with an insecure default")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("JOT_DATABASE"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("JOT_PUBLIC_URL"); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := os.Getenv("JOT_ADMIN_USER"); v != "" {
		cfg.AdminUsername = v
	}
	if v := os.Getenv("JOT_ADMIN_PASS"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("JOT_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("JOT_DEBUG"); v != "" {
		cfg.Debug = v == "true" || v == "1"
	}
}

func applySettingsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return nil
}
