package config

import (
	"fmt"

	"github.com/spf13/viper"

	"caseboard/internal/db"
)

// Config is the full server configuration.
type Config struct {
	DB             db.Config
	HTTPAddr       string
	AllowedOrigins []string
	MigrationsPath string
	// SubjectFeedPath, when set, refreshes the stored taxonomy from the
	// feed file at startup.
	SubjectFeedPath string
	// AdminSecret guards the roster admin route; empty disables it.
	AdminSecret string
}

// Load reads config.yaml from configPath with environment overrides
// (APP_DATABASE_HOST, APP_HTTP_ADDR, ...).
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB:             db.DefaultConfig(),
		HTTPAddr:       ":8080",
		AllowedOrigins: []string{"http://localhost:5173"},
		MigrationsPath: "migrations",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("http.addr")
	v.BindEnv("http.allowed_origins")
	v.BindEnv("migrations.path")
	v.BindEnv("subjects.feed_path")
	v.BindEnv("admin.secret")

	if err := v.ReadInConfig(); err != nil {
		// Missing config.yaml is fine; defaults plus env vars apply.
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("http.addr") {
		cfg.HTTPAddr = v.GetString("http.addr")
	}
	if v.IsSet("http.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("http.allowed_origins")
	}
	if v.IsSet("migrations.path") {
		cfg.MigrationsPath = v.GetString("migrations.path")
	}
	if v.IsSet("subjects.feed_path") {
		cfg.SubjectFeedPath = v.GetString("subjects.feed_path")
	}
	if v.IsSet("admin.secret") {
		cfg.AdminSecret = v.GetString("admin.secret")
	}

	return cfg, nil
}
