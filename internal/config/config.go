package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stockhistory/internal/alphavantage"
	"stockhistory/internal/fetcher"
	"stockhistory/internal/render"
	"stockhistory/internal/yahoo"
)

// Supported history providers
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
)

// Config holds all configuration for the stockhistory command.
type Config struct {
	// Provider selects the market-data source
	Provider string `mapstructure:"provider"`

	// Period is the default history range when none is given
	Period string `mapstructure:"period"`

	// Format is the output encoding (json or csv)
	Format string `mapstructure:"format"`

	// Timeout is the overall deadline for one run
	Timeout time.Duration `mapstructure:"timeout"`

	// Adjusted selects split and dividend adjusted closes
	Adjusted bool `mapstructure:"adjusted"`

	UserAgent string `mapstructure:"user_agent"`

	// Base URLs for API endpoints (configurable for testing)
	YahooBaseURL        string `mapstructure:"yahoo_base_url"`
	AlphavantageBaseURL string `mapstructure:"alphavantage_base_url"`

	AlphavantageAPIKey string `mapstructure:"alphavantage_api_key"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// Load reads configuration from command-line flags, environment variables
// and an optional config file, in that order of precedence.
//
// Recognized environment variables:
//   - STOCKHISTORY_PROVIDER, STOCKHISTORY_PERIOD, STOCKHISTORY_FORMAT
//   - STOCKHISTORY_TIMEOUT, STOCKHISTORY_ADJUSTED, STOCKHISTORY_USER_AGENT
//   - YAHOO_BASE_URL, ALPHAVANTAGE_BASE_URL (optional, default to production)
//   - ALPHAVANTAGE_API_KEY (required with the alphavantage provider)
//   - LOG_LEVEL, LOG_FILE
//
// configFile names an explicit YAML file; when empty, config.yaml is looked
// up in the working directory and $HOME/.stockhistory.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("provider", ProviderYahoo)
	v.SetDefault("period", fetcher.DefaultPeriod)
	v.SetDefault("format", string(render.FormatJSON))
	v.SetDefault("timeout", fetcher.DefaultTimeout)
	v.SetDefault("adjusted", true)
	v.SetDefault("yahoo_base_url", yahoo.DefaultBaseURL)
	v.SetDefault("alphavantage_base_url", alphavantage.DefaultBaseURL)
	v.SetDefault("log_level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stockhistory")

		// Read config file (ignore if not found)
		_ = v.ReadInConfig()
	}

	v.BindEnv("provider", "STOCKHISTORY_PROVIDER")
	v.BindEnv("period", "STOCKHISTORY_PERIOD")
	v.BindEnv("format", "STOCKHISTORY_FORMAT")
	v.BindEnv("timeout", "STOCKHISTORY_TIMEOUT")
	v.BindEnv("adjusted", "STOCKHISTORY_ADJUSTED")
	v.BindEnv("user_agent", "STOCKHISTORY_USER_AGENT")
	v.BindEnv("yahoo_base_url", "YAHOO_BASE_URL")
	v.BindEnv("alphavantage_base_url", "ALPHAVANTAGE_BASE_URL")
	v.BindEnv("alphavantage_api_key", "ALPHAVANTAGE_API_KEY")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("log_file", "LOG_FILE")

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// flagKeys maps config keys to the command-line flags that override them
var flagKeys = map[string]string{
	"provider":  "provider",
	"period":    "period",
	"format":    "format",
	"timeout":   "timeout",
	"adjusted":  "adjusted",
	"log_level": "log-level",
}

// Validate checks value ranges and provider-specific requirements.
func (c *Config) Validate() error {
	var problems []string

	switch c.Provider {
	case ProviderYahoo:
	case ProviderAlphaVantage:
		if c.AlphavantageAPIKey == "" {
			problems = append(problems, "ALPHAVANTAGE_API_KEY is required for the alphavantage provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.Provider))
	}

	if _, err := render.ParseFormat(c.Format); err != nil || c.Format == "" {
		problems = append(problems, fmt.Sprintf("unknown format %q", c.Format))
	}

	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
