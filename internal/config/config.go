package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"DivergenceSentinel/internal/strategy"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // tencent, yahoo or mock
		Fallback string `yaml:"fallback"`
		Lookback int    `yaml:"lookback"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"data_source"`
	Analysis Analysis `yaml:"analysis"`
	Watchlist struct {
		Backend string   `yaml:"backend"` // json or sqlite
		Path    string   `yaml:"path"`
		Seed    []string `yaml:"seed"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Scan struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"scan"`
}

// Analysis selects a scoring preset and optionally overrides single values.
type Analysis struct {
	Preset         string   `yaml:"preset"`
	Lookback       *int     `yaml:"lookback"`
	Window         *int     `yaml:"window"`
	MinSpacingDays *int     `yaml:"min_spacing_days"`
	MinRows        *int     `yaml:"min_rows"`
	DropThreshold  *float64 `yaml:"drop_threshold"`
	VolumeRatioMax *float64 `yaml:"volume_ratio_max"`
	MinorMult      *float64 `yaml:"minor_multiplier"`
	MinorCap       *float64 `yaml:"minor_cap"`
	OrdinaryMult   *float64 `yaml:"ordinary_multiplier"`
	OrdinaryCap    *float64 `yaml:"ordinary_cap"`
}

// Scoring resolves the preset and applies the overrides.
func (a Analysis) Scoring() (strategy.ScoringConfig, error) {
	cfg, err := strategy.PresetByName(a.Preset)
	if err != nil {
		return cfg, err
	}
	setInt(&cfg.Lookback, a.Lookback)
	setInt(&cfg.Window, a.Window)
	setInt(&cfg.MinSpacingDays, a.MinSpacingDays)
	setInt(&cfg.MinRows, a.MinRows)
	setFloat(&cfg.DropThreshold, a.DropThreshold)
	setFloat(&cfg.VolumeRatioMax, a.VolumeRatioMax)
	setFloat(&cfg.MinorMultiplier, a.MinorMult)
	setFloat(&cfg.MinorCap, a.MinorCap)
	setFloat(&cfg.OrdinaryMultiplier, a.OrdinaryMult)
	setFloat(&cfg.OrdinaryCap, a.OrdinaryCap)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("analysis: %w", err)
	}
	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Load reads config from a YAML file, then .env and environment variable
// overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"HTTPS_PROXY":        &c.DataSource.Proxy,
		"ANALYSIS_PRESET":    &c.Analysis.Preset,
		"WATCHLIST_BACKEND":  &c.Watchlist.Backend,
		"WATCHLIST_PATH":     &c.Watchlist.Path,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"CRON_SCAN":          &c.Schedule.ScanCron,
		"SERVER_ADDR":        &c.Server.Addr,
	}
	for key, dst := range envString {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envInt := map[string]*int{
		"DATA_LOOKBACK":    &c.DataSource.Lookback,
		"SCAN_CONCURRENCY": &c.Scan.Concurrency,
	}
	for key, dst := range envInt {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("WATCHLIST_SEED"); v != "" {
		c.Watchlist.Seed = strings.Split(v, ",")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "tencent"
	}
	if c.DataSource.Lookback == 0 {
		c.DataSource.Lookback = 150
	}
	if c.Analysis.Preset == "" {
		c.Analysis.Preset = strategy.PresetStandard
	}
	if c.Watchlist.Backend == "" {
		c.Watchlist.Backend = "json"
	}
	if c.Watchlist.Path == "" {
		c.Watchlist.Path = "data/watchlist.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/divergence_sentinel.db"
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 15 * * 1-5"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 4
	}
}

var (
	providers = []string{"tencent", "yahoo", "mock"}
	backends  = []string{"json", "sqlite", "memory"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks the loaded values. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if !oneOf(c.DataSource.Provider, providers) {
		errs = append(errs, fmt.Errorf("data_source.provider %q must be one of %v", c.DataSource.Provider, providers))
	}
	if c.DataSource.Fallback != "" && !oneOf(c.DataSource.Fallback, providers) {
		errs = append(errs, fmt.Errorf("data_source.fallback %q must be one of %v", c.DataSource.Fallback, providers))
	}
	if c.DataSource.Lookback < 0 {
		errs = append(errs, errors.New("data_source.lookback must not be negative"))
	}
	if !oneOf(c.Watchlist.Backend, backends) {
		errs = append(errs, fmt.Errorf("watchlist.backend %q must be one of %v", c.Watchlist.Backend, backends))
	}
	if c.Scan.Concurrency < 1 {
		errs = append(errs, errors.New("scan.concurrency must be positive"))
	}
	if _, err := c.Analysis.Scoring(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
