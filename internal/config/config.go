package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the main configuration structure
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// AWSConfig contains AWS-specific configuration
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// AgentConfig contains configuration for the agent and its oracle
type AgentConfig struct {
	Provider             string  `mapstructure:"provider"` // openai, gemini
	OpenAIAPIKey         string  `mapstructure:"openai_api_key"`
	GeminiAPIKey         string  `mapstructure:"gemini_api_key"`
	Model                string  `mapstructure:"model"`
	MaxTokens            int     `mapstructure:"max_tokens"`
	Temperature          float64 `mapstructure:"temperature"`
	OracleTimeoutSeconds int     `mapstructure:"oracle_timeout_seconds"`
	ConfirmationRequired bool    `mapstructure:"confirmation_required"`
	SchemaDir            string  `mapstructure:"schema_dir"`
	SettingsDir          string  `mapstructure:"settings_dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file, environment variables, and defaults
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.aws-devops-agent")

	// Environment variable support
	viper.SetEnvPrefix("AIOPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables for sensitive data
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Agent.OpenAIAPIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Agent.GeminiAPIKey = apiKey
	}
	if awsRegion := os.Getenv("AWS_REGION"); awsRegion != "" {
		config.AWS.Region = awsRegion
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "localhost")

	// AWS defaults
	viper.SetDefault("aws.region", "us-east-1")

	// Agent defaults
	viper.SetDefault("agent.provider", "openai")
	viper.SetDefault("agent.model", "gpt-4-turbo")
	viper.SetDefault("agent.max_tokens", 4000)
	viper.SetDefault("agent.temperature", 0.0)
	viper.SetDefault("agent.oracle_timeout_seconds", 60)
	viper.SetDefault("agent.confirmation_required", true)
	viper.SetDefault("agent.schema_dir", "./schemas")
	viper.SetDefault("agent.settings_dir", "./settings")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// OracleTimeout returns the timeout applied to each oracle call
func (c *AgentConfig) OracleTimeout() time.Duration {
	if c.OracleTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}
