// Package config loads Code-Master's server configuration from a .env file
// and the process environment.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the Code-Master server.
type Config struct {
	ServerName    string
	ServerVersion string
	ServerHost    string
	ServerPort    int

	MinPlayers      int
	MaxPlayers      int
	CodeLength      int
	AllowedAttempts int
	Alphabet        string

	DBType     string // "sqlite" or "postgres"
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	ShutdownTimeoutSecs int
	OutboundQueueSize   int
	MaxFrameBytes       int
	IdleTimeoutSecs     int
}

var defaultConfig = Config{
	ServerName:    "Code-Master",
	ServerVersion: "1.0.0",
	ServerHost:    "",
	ServerPort:    7890,

	MinPlayers:      2,
	MaxPlayers:      4,
	CodeLength:      4,
	AllowedAttempts: 10,
	Alphabet:        "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",

	DBType:     "sqlite",
	DBHost:     "localhost",
	DBPort:     5432,
	DBName:     "data/codemaster.db",
	DBUser:     "codemaster",
	DBPassword: "",

	ShutdownTimeoutSecs: 30,
	OutboundQueueSize:   64,
	MaxFrameBytes:       4096,
	IdleTimeoutSecs:     0,
}

// LoadConfig loads configuration from an environment file and the process
// environment. Command line flag -env can specify a custom .env file.
func LoadConfig() (*Config, error) {
	envFile := flag.String("env", ".env", "Path to environment configuration file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file %s: %w", *envFile, err)
		}
		log.Info().Str("env_file", *envFile).Msg("configuration file not found, using defaults and process environment")
	}

	cfg := defaultConfig
	applyEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().Msg("configuration loaded successfully")
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	str(&cfg.ServerName, "SERVER_NAME")
	str(&cfg.ServerVersion, "SERVER_VERSION")
	str(&cfg.ServerHost, "SERVER_HOST")
	intVal(&cfg.ServerPort, "SERVER_PORT")

	intVal(&cfg.MinPlayers, "MIN_PLAYERS")
	intVal(&cfg.MaxPlayers, "MAX_PLAYERS")
	intVal(&cfg.CodeLength, "CODE_LENGTH")
	intVal(&cfg.AllowedAttempts, "ALLOWED_ATTEMPTS")
	str(&cfg.Alphabet, "ALPHABET")

	str(&cfg.DBType, "DB_TYPE")
	str(&cfg.DBHost, "DB_HOST")
	intVal(&cfg.DBPort, "DB_PORT")
	str(&cfg.DBName, "DB_NAME")
	str(&cfg.DBUser, "DB_USER")
	str(&cfg.DBPassword, "DB_PASSWORD")

	intVal(&cfg.ShutdownTimeoutSecs, "SHUTDOWN_TIMEOUT_SECS")
	intVal(&cfg.OutboundQueueSize, "OUTBOUND_QUEUE_SIZE")
	intVal(&cfg.MaxFrameBytes, "MAX_FRAME_BYTES")
	intVal(&cfg.IdleTimeoutSecs, "IDLE_TIMEOUT_SECS")
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func intVal(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring non-numeric config value")
		return
	}
	*dst = n
}

func validateConfig(cfg *Config) error {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: must be between 1 and 65535")
	}
	if cfg.DBType != "sqlite" && cfg.DBType != "postgres" {
		return fmt.Errorf("invalid DB_TYPE: must be 'sqlite' or 'postgres'")
	}
	if cfg.DBName == "" {
		return fmt.Errorf("DB_NAME cannot be empty")
	}
	if cfg.DBType == "postgres" && (cfg.DBHost == "" || cfg.DBUser == "") {
		return fmt.Errorf("DB_HOST and DB_USER are required for postgres")
	}
	if cfg.MinPlayers < 2 {
		return fmt.Errorf("MIN_PLAYERS must be at least 2")
	}
	if cfg.MaxPlayers < cfg.MinPlayers {
		return fmt.Errorf("MAX_PLAYERS must be >= MIN_PLAYERS")
	}
	if cfg.CodeLength < 1 {
		return fmt.Errorf("CODE_LENGTH must be at least 1")
	}
	if cfg.AllowedAttempts < 1 {
		return fmt.Errorf("ALLOWED_ATTEMPTS must be at least 1")
	}
	if len(cfg.Alphabet) < 2 {
		return fmt.Errorf("ALPHABET must contain at least two symbols")
	}
	if cfg.ShutdownTimeoutSecs < 5 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECS must be at least 5 seconds")
	}
	if cfg.OutboundQueueSize < 1 {
		return fmt.Errorf("OUTBOUND_QUEUE_SIZE must be at least 1")
	}
	return nil
}

// GetBindAddress returns the address to bind the listener to.
func (c *Config) GetBindAddress() string {
	if c.ServerHost == "" {
		return "0.0.0.0"
	}
	return c.ServerHost
}

// GetListenAddress returns the full listen address (host:port).
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.GetBindAddress(), c.ServerPort)
}

// GetConnectionString returns the match recorder's connection string.
func (c *Config) GetConnectionString() string {
	switch c.DBType {
	case "sqlite":
		return c.DBName
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
		)
	default:
		return ""
	}
}

// LogConfig logs the active configuration, omitting secrets.
func (c *Config) LogConfig() {
	log.Info().
		Str("server", c.ServerName).
		Str("version", c.ServerVersion).
		Str("listen_address", c.GetListenAddress()).
		Int("min_players", c.MinPlayers).
		Int("max_players", c.MaxPlayers).
		Int("code_length", c.CodeLength).
		Int("allowed_attempts", c.AllowedAttempts).
		Str("alphabet", c.Alphabet).
		Str("db_type", c.DBType).
		Str("db_name", c.DBName).
		Msg("server configuration")
}
