// Package config loads screeny defaults from a config file and environment
// via Viper. Explicit CLI flags take precedence over everything loaded here.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config mirrors the CLI surface. Zero values are filled with the same
// defaults the flags use.
type Config struct {
	Output   string `mapstructure:"output"`
	Template string `mapstructure:"template"`
	Format   string `mapstructure:"format"`
	Quality  int    `mapstructure:"quality"`

	Width  int     `mapstructure:"width"`
	Height int     `mapstructure:"height"`
	Scale  float64 `mapstructure:"scale"`
	Mobile bool    `mapstructure:"mobile"`

	WaitTimeout  int    `mapstructure:"wait_timeout"`
	WaitSelector string `mapstructure:"wait_selector"`
	WaitState    string `mapstructure:"wait_state"`

	DisableAnimations bool `mapstructure:"disable_animations"`
	BlockAds          bool `mapstructure:"block_ads"`

	Engine    string `mapstructure:"engine"`
	UserAgent string `mapstructure:"user_agent"`
	FullPage  bool   `mapstructure:"full_page"`

	SettleDelay         int `mapstructure:"settle_delay"`
	ScrollStepDelay     int `mapstructure:"scroll_step_delay"`
	ScrollSettleDelay   int `mapstructure:"scroll_settle_delay"`
	IdleQuietPeriod     int `mapstructure:"idle_quiet_period"`
	DelayBetweenCapture int `mapstructure:"delay_between_capture"`

	Excludes       []string `mapstructure:"excludes"`
	BlockedDomains []string `mapstructure:"blocked_domains"` // extra deny-list entries

	HistoryPath        string `mapstructure:"history_path"`
	SkipDuplicates     bool   `mapstructure:"skip_duplicates"`
	DuplicateThreshold int    `mapstructure:"duplicate_threshold"`
	ImprintURL         bool   `mapstructure:"imprint_url"`
}

// Load builds a Config from defaults, an optional config file and the
// environment (SCREENY_* variables).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCREENY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "./screenshots")
	v.SetDefault("template", "{domain}_{timestamp}")
	v.SetDefault("format", "png")
	v.SetDefault("quality", 90)
	v.SetDefault("width", 1920)
	v.SetDefault("height", 1080)
	v.SetDefault("scale", 2.0)
	v.SetDefault("mobile", false)
	v.SetDefault("wait_timeout", 30000)
	v.SetDefault("wait_state", "networkidle")
	v.SetDefault("disable_animations", true)
	v.SetDefault("block_ads", true)
	v.SetDefault("engine", "chromedp")
	v.SetDefault("full_page", true)
	v.SetDefault("settle_delay", 2000)
	v.SetDefault("scroll_step_delay", 100)
	v.SetDefault("scroll_settle_delay", 500)
	v.SetDefault("idle_quiet_period", 500)
	v.SetDefault("delay_between_capture", 1000)
	v.SetDefault("skip_duplicates", false)
	v.SetDefault("duplicate_threshold", 96)
	v.SetDefault("imprint_url", false)
}

// Validate checks the enum-valued settings. Numeric values are passed through
// to the browser engine untouched.
func (c Config) Validate() error {
	switch c.Format {
	case "png", "jpeg":
	default:
		return fmt.Errorf("format must be png or jpeg, got %q", c.Format)
	}
	switch c.WaitState {
	case "load", "domcontentloaded", "networkidle":
	default:
		return fmt.Errorf("wait_state must be load, domcontentloaded or networkidle, got %q", c.WaitState)
	}
	switch c.Engine {
	case "chromedp", "rod":
	default:
		return fmt.Errorf("engine must be chromedp or rod, got %q", c.Engine)
	}
	return nil
}
