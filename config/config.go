package config

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Auth         Auth
	Execution    Execution
	LogLevel     string
	GeminiApiKey string
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Auth struct {
	JWTSecret string
}

// Execution tunes the test execution engine.
type Execution struct {
	// AutoComplete finishes an in-progress execution as soon as every
	// question holds an answer, on both answer-submission paths.
	AutoComplete bool
	// MaxWriteRetries bounds re-reads after a concurrent writer bumped the
	// execution's version.
	MaxWriteRetries int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("EXECUTION_AUTO_COMPLETE", true)
	viper.SetDefault("EXECUTION_MAX_WRITE_RETRIES", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Execution.AutoComplete = viper.GetBool("EXECUTION_AUTO_COMPLETE")
	config.Execution.MaxWriteRetries = viper.GetInt("EXECUTION_MAX_WRITE_RETRIES")
	config.LogLevel = viper.GetString("LOG_LEVEL")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	if config.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Every authenticated request will be rejected.")
	}
	switch config.Server.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		log.Warn().Str("ginMode", config.Server.GinMode).Msg("Unknown GIN_MODE, falling back to debug")
		config.Server.GinMode = gin.DebugMode
	}
	if config.Execution.MaxWriteRetries < 1 {
		config.Execution.MaxWriteRetries = 1
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("ginMode", config.Server.GinMode).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Bool("autoComplete", config.Execution.AutoComplete).
		Bool("geminiEnabled", config.GeminiApiKey != "").
		Msg("Config loaded")
	return &config, nil
}
