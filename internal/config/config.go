package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ErrMissingLeague = errors.New("session.league is required")
var ErrMissingSocketURL = errors.New("socket.url is required")

type Config struct {
	Socket  SocketConfig  `mapstructure:"socket"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Session SessionConfig `mapstructure:"session"`
	Draft   DraftConfig   `mapstructure:"draft"`
	API     APIConfig     `mapstructure:"api"`
	Journal JournalConfig `mapstructure:"journal"`
	Log     LogConfig     `mapstructure:"log"`
}

type SocketConfig struct {
	URL            string        `mapstructure:"url"`
	FallbackURL    string        `mapstructure:"fallbackURL"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	FallbackDelay  time.Duration `mapstructure:"fallbackDelay"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
}

type HTTPConfig struct {
	BaseURL       string        `mapstructure:"baseURL"`
	CSRFToken     string        `mapstructure:"csrfToken"`
	CSRFPage      string        `mapstructure:"csrfPage"`
	SessionCookie string        `mapstructure:"sessionCookie"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	League   string `mapstructure:"league"`
	UserID   int    `mapstructure:"userID"`
	Username string `mapstructure:"username"`
}

// CurrentUserID is nil when no user id was configured.
func (s SessionConfig) CurrentUserID() *int {
	if s.UserID <= 0 {
		return nil
	}
	id := s.UserID
	return &id
}

type DraftConfig struct {
	TransactionTimeout time.Duration `mapstructure:"transactionTimeout"`
	AnimationDelay     time.Duration `mapstructure:"animationDelay"`
	RecountDelay       time.Duration `mapstructure:"recountDelay"`
	NoticeTTL          time.Duration `mapstructure:"noticeTTL"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

type JournalConfig struct {
	// DatabaseURL selects the postgres journal; empty keeps it in memory.
	DatabaseURL string `mapstructure:"databaseURL"`
	Keep        int    `mapstructure:"keep"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("socket.url", "")
	v.SetDefault("socket.fallbackURL", "")
	v.SetDefault("socket.connectTimeout", "10s")
	v.SetDefault("socket.fallbackDelay", "3s")
	v.SetDefault("socket.writeTimeout", "3s")

	v.SetDefault("http.baseURL", "")
	v.SetDefault("http.csrfToken", "")
	v.SetDefault("http.csrfPage", "")
	v.SetDefault("http.sessionCookie", "")
	v.SetDefault("http.timeout", "8s")

	v.SetDefault("session.league", "")
	v.SetDefault("session.userID", 0)
	v.SetDefault("session.username", "")

	v.SetDefault("draft.transactionTimeout", "10s")
	v.SetDefault("draft.animationDelay", "300ms")
	v.SetDefault("draft.recountDelay", "100ms")
	v.SetDefault("draft.noticeTTL", "4s")

	v.SetDefault("api.listen", "127.0.0.1:8090")
	v.SetDefault("journal.databaseURL", "")
	v.SetDefault("journal.keep", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// flagKeys maps command line flags onto config keys. Flags set on the command line win over everything else.
var flagKeys = map[string]string{
	"league": "session.league",
	"listen": "api.listen",
	"socket": "socket.url",
}

// Load reads defaults, an optional .env, an optional YAML file, DRAFTBOARD_* variables and flags.
// An explicit path must exist; without one, draftboard.yaml in the working directory is optional.
func Load(logger *zap.Logger, path string, flags *pflag.FlagSet) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("draftboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DRAFTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("no config file, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.League) == "" {
		return ErrMissingLeague
	}
	if c.Socket.URL == "" {
		return ErrMissingSocketURL
	}
	if c.Draft.TransactionTimeout <= 0 {
		return fmt.Errorf("draft.transactionTimeout must be positive, got %s", c.Draft.TransactionTimeout)
	}
	return nil
}
