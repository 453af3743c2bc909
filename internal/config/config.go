package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string     `toml:"listen_addr"`
	Port              string     `toml:"port"`
	DatabasePath      string     `toml:"database_path"`
	SessionSecret     string     `toml:"session_secret"`
	GinMode           string     `toml:"gin_mode"`
	SiteBaseURL       string     `toml:"site_base_url"`
	SuperRootUserName string     `toml:"super_root_user_name"`
	SuperRootPassword string     `toml:"super_root_password"`
	LogLevel          string     `toml:"log_level"`
	Mail              MailConfig `toml:"mail"`
}

// MailConfig 描述分享邮件的发送方式。
type MailConfig struct {
	Backend  string `toml:"backend"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

const (
	MailBackendConsole = "console"
	MailBackendSMTP    = "smtp"
)

// devSessionSecret signs admin cookies outside release mode when SESSION_SECRET is unset.
const devSessionSecret = "inkpress-dev-secret"

// ErrSessionSecretRequired is returned in release mode when no session secret is configured.
var ErrSessionSecretRequired = errors.New("SESSION_SECRET is required in release mode")

// Defaults returns the configuration used when neither a file nor the environment say otherwise.
func Defaults() AppConfig {
	return AppConfig{
		Port:         "8080",
		DatabasePath: "blog.db",
		GinMode:      "release",
		LogLevel:     "info",
		Mail: MailConfig{
			Backend: MailBackendConsole,
			Port:    25,
			From:    "webmaster@localhost",
		},
	}
}

// Load 依次读取默认值、BLOG_CONFIG 指向的 TOML 文件以及环境变量，后者优先级最高。
func Load() (AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("BLOG_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	cfg.SiteBaseURL = strings.TrimRight(cfg.SiteBaseURL, "/")
	cfg.Mail.Backend = strings.ToLower(cfg.Mail.Backend)

	switch cfg.Mail.Backend {
	case MailBackendConsole:
	case MailBackendSMTP:
		if cfg.Mail.Host == "" {
			return AppConfig{}, errors.New("smtp mail backend requires a host")
		}
	default:
		return AppConfig{}, fmt.Errorf("unknown mail backend %q", cfg.Mail.Backend)
	}

	return cfg, nil
}

// SessionKey returns the secret used to sign admin sessions. Release mode refuses to
// fall back to the built-in development secret.
func (c AppConfig) SessionKey() (string, error) {
	if c.SessionSecret != "" {
		return c.SessionSecret, nil
	}
	if c.GinMode == "" || c.GinMode == "release" {
		return "", ErrSessionSecretRequired
	}
	return devSessionSecret, nil
}

func loadFile(path string, cfg *AppConfig) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.SiteBaseURL, "SITE_BASE_URL")
	setString(&cfg.SuperRootUserName, "SUPER_ROOT_USER_NAME")
	setString(&cfg.SuperRootPassword, "SUPER_ROOT_PASSWORD")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Mail.Backend, "MAIL_BACKEND")
	setString(&cfg.Mail.Host, "SMTP_HOST")
	setString(&cfg.Mail.Username, "SMTP_USERNAME")
	setString(&cfg.Mail.Password, "SMTP_PASSWORD")
	setString(&cfg.Mail.From, "MAIL_FROM")

	if raw := strings.TrimSpace(os.Getenv("SMTP_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid SMTP_PORT %q", raw)
		}
		cfg.Mail.Port = port
	}

	return nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}
