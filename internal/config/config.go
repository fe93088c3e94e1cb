// Package config provides dynamic configuration management for CalqShell.
// It uses Viper to load settings from files, environment variables, and CLI flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for CalqShell.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	ServerHost string `mapstructure:"server_host"`
	// ControlPort: JWT-protected preference API used by native chrome.
	ControlPort int `mapstructure:"control_port"`
	// DataPort: hosted document, bridge socket and device reports.
	DataPort int    `mapstructure:"data_port"`
	DBDriver string `mapstructure:"db_driver"` // "sqlite" or "memory"
	DBPath   string `mapstructure:"db_path"`

	// ── Security ──────────────────────────────────────────────────────────────
	JWTSecret string `mapstructure:"jwt_secret"`
	// BridgeToken guards the data plane: "Authorization: Bearer <token>" or ?token=.
	BridgeToken string `mapstructure:"bridge_token"`
	// AdminPass may be plain text or a bcrypt hash ("$2a$..." / "$2b$...").
	AdminUser string `mapstructure:"admin_user"`
	AdminPass string `mapstructure:"admin_pass"`

	// ── Hosted site ───────────────────────────────────────────────────────────
	SiteURL       string `mapstructure:"site_url"`
	CookieDomain  string `mapstructure:"cookie_domain"`
	ReloadDelayMS int    `mapstructure:"reload_delay_ms"`

	// ── Device appearance ─────────────────────────────────────────────────────
	Appearance     string `mapstructure:"appearance"`      // light | dark
	AppearanceFile string `mapstructure:"appearance_file"` // watched when set

	// ── Chrome tabs ───────────────────────────────────────────────────────────
	BrowserEnabled   bool     `mapstructure:"browser_enabled"`
	BrowserHeadless  bool     `mapstructure:"browser_headless"`
	BrowserExecPath  string   `mapstructure:"browser_exec_path"`
	BrowserRemoteURL string   `mapstructure:"browser_remote_url"`
	BrowserURLs      []string `mapstructure:"browser_urls"`

	// ── App identity (sent to the remote site) ───────────────────────────────
	AppSource   string `mapstructure:"app_source"`
	AppName     string `mapstructure:"app_name"`
	AppVersion  string `mapstructure:"app_version"`
	AppPlatform string `mapstructure:"app_platform"` // empty = detect

	// ── Agent ────────────────────────────────────────────────────────────────
	AgentServerAddr string `mapstructure:"agent_server_addr"`
	AgentToken      string `mapstructure:"agent_token"`
	AgentInterval   int    `mapstructure:"agent_interval_seconds"`

	LogDebug bool `mapstructure:"log_debug"`
}

// ReloadDelay is ReloadDelayMS as a duration.
func (c *Config) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadDelayMS) * time.Millisecond
}

// Load reads config from file (./config.yaml or ~/.calqshell/config.yaml)
// and falls back to smart defaults. Environment variables with prefix CALQ_
// override file values.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.calqshell")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("control_port", 7070)
	v.SetDefault("data_port", 7071)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "calqshell.db")

	// Security defaults: MUST be overridden in production via config.yaml or env vars.
	v.SetDefault("jwt_secret", "cQ8#vLz2!pR7&wN4^tK9@xM1*hD6$bF3")
	v.SetDefault("bridge_token", "calqshell-bridge-token")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass", "admin")

	v.SetDefault("site_url", "https://www.calqulation.com")
	v.SetDefault("cookie_domain", ".calqulation.com")
	v.SetDefault("reload_delay_ms", 100)

	v.SetDefault("appearance", "light")
	v.SetDefault("appearance_file", "")

	v.SetDefault("browser_enabled", false)
	v.SetDefault("browser_headless", true)
	v.SetDefault("browser_exec_path", "")
	v.SetDefault("browser_remote_url", "")
	v.SetDefault("browser_urls", []string{
		"https://www.calqulation.com",
		"https://www.calqulation.com/tool/emi-calculator",
		"https://www.calqulation.com/tool/sip-calculator",
		"https://www.calqulation.com/blog",
	})

	v.SetDefault("app_source", "CalqulationMobileApp")
	v.SetDefault("app_name", "Calqulation")
	v.SetDefault("app_version", "1.0.0")
	v.SetDefault("app_platform", "")

	v.SetDefault("agent_server_addr", "127.0.0.1:7071")
	v.SetDefault("agent_token", "calqshell-bridge-token")
	v.SetDefault("agent_interval_seconds", 30)

	v.SetDefault("log_debug", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("CALQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.ReloadDelayMS < 0 {
		return nil, fmt.Errorf("reload_delay_ms must not be negative, got %d", cfg.ReloadDelayMS)
	}
	return &cfg, nil
}
