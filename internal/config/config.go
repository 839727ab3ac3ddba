package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Weather  WeatherConfig `mapstructure:"weather"`
	Agent    AgentConfig   `mapstructure:"agent"`
	Store    StoreConfig   `mapstructure:"store"`
}

// WeatherConfig holds the weather provider configuration
type WeatherConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	GeoBaseURL        string  `mapstructure:"geo_base_url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// AgentConfig holds the hosted chat agent configuration
type AgentConfig struct {
	URL        string `mapstructure:"url"`
	ThreadID   string `mapstructure:"thread_id"`
	ResourceID string `mapstructure:"resource_id"`
}

// StoreConfig holds the preference store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SetupError reports required configuration that is absent. It is returned
// instead of letting a request fail downstream with an opaque provider error.
type SetupError struct {
	Key  string
	Hint string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("missing configuration %q: %s", e.Key, e.Hint)
}

// Load reads the configuration. Lookup order: the explicit path argument, the
// CONFIG_PATH environment variable, then config.yaml in the current directory
// or $HOME/.config/skycast. A missing file is not an error; everything can be
// supplied through SKYCAST_* environment variables or a .env file.
func Load(path string) (*Config, error) {
	// .env is how the original deployment carried the provider key around.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SKYCAST")
	// Nested keys map to SKYCAST_SECTION_KEY.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.geo_base_url", "http://api.openweathermap.org/geo/1.0")
	v.SetDefault("weather.requests_per_second", 1.0)
	v.SetDefault("agent.resource_id", "weatherAgent")
	v.SetDefault("store.path", defaultStorePath())

	v.BindEnv("weather.api_key", "SKYCAST_WEATHER_API_KEY", "OPENWEATHER_API_KEY")
	v.BindEnv("agent.url", "SKYCAST_AGENT_URL")
	v.BindEnv("agent.thread_id", "SKYCAST_AGENT_THREAD_ID")

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "skycast"))
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &config, nil
}

// ValidateWeather checks the configuration needed to reach the weather
// provider directly.
func (c *Config) ValidateWeather() error {
	if c.Weather.APIKey == "" {
		return &SetupError{
			Key:  "weather.api_key",
			Hint: "get a free API key from https://home.openweathermap.org/api_keys and set it in config.yaml or as OPENWEATHER_API_KEY",
		}
	}
	return nil
}

// ValidateAgent checks the configuration needed for the hosted chat agent.
func (c *Config) ValidateAgent() error {
	if c.Agent.URL == "" {
		return &SetupError{
			Key:  "agent.url",
			Hint: "set the streaming endpoint of the hosted weather agent, e.g. https://<host>/api/agents/weatherAgent/stream",
		}
	}
	if c.Agent.ThreadID == "" {
		return &SetupError{
			Key:  "agent.thread_id",
			Hint: "set the conversation thread identifier assigned to this client",
		}
	}
	return nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "skycast.db"
	}
	return filepath.Join(home, ".config", "skycast", "skycast.db")
}
