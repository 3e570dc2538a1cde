package config

import (
	"enhancebot/internal/core/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "ENHANCEBOT"

type Config struct {
	Bot       Bot       `mapstructure:"bot"`
	Telegram  Telegram  `mapstructure:"telegram"`
	Providers Providers `mapstructure:"providers" validate:"dive"`
	Enhance   Enhance   `mapstructure:"enhance"`
	HTTP      HTTP      `mapstructure:"http"`
}

type Bot struct {
	LogLevel       string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

type Telegram struct {
	BotToken         string  `mapstructure:"bot_token"`
	AllowedChatIDs   []int64 `mapstructure:"allowed_chat_ids"`
	AdminUsername    string  `mapstructure:"admin_username"`
	DailyCreditLimit float64 `mapstructure:"daily_credit_limit" validate:"gte=0"`
}

// Providers holds credentials and tuning per provider, keyed by provider name.
type Providers map[string]Provider

type Provider struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model        string        `mapstructure:"model"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

type Enhance struct {
	Provider string  `mapstructure:"provider" validate:"required"`
	Model    string  `mapstructure:"model"`
	JobCost  float64 `mapstructure:"job_cost" validate:"gte=0"`
}

type HTTP struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Lookup returns the configuration section for a provider, if present.
func (p Providers) Lookup(provider domain.Provider) (Provider, bool) {
	cfg, ok := p[string(provider)]
	return cfg, ok
}

var validate = validator.New()

// Load reads config.toml from the given directories, applies ENHANCEBOT_* environment overrides and an optional
// .env file, and validates the result.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.log_level", "info")
	v.SetDefault("bot.handler_timeout", "5m")
	v.SetDefault("enhance.provider", string(domain.TopazLabs))
	v.SetDefault("telegram.daily_credit_limit", 0)

	// nested provider keys are only visible to AutomaticEnv once bound
	for _, key := range []string{"api_key", "base_url", "model", "poll_interval", "poll_timeout"} {
		_ = v.BindEnv("providers." + string(domain.TopazLabs) + "." + key)
	}

	_ = v.BindEnv("telegram.bot_token")
	_ = v.BindEnv("http.listen_addr")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Telegram.BotToken == "" && c.HTTP.ListenAddr == "" {
		return errors.New("invalid config: neither telegram.bot_token nor http.listen_addr is set")
	}

	return nil
}
