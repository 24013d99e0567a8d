// Package config loads the process configuration of autoblacklist from the
// environment, an optional .env file and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raykavin/autoblacklist/pkg/pairsync"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

const EnvPrefix = "AUTOBLACKLIST"

// Keys, also used as flag names. The environment variable of a key is
// AUTOBLACKLIST_<KEY> with dashes replaced by underscores.
const (
	KeySettings      = "settings"
	KeyPrimaryFile   = "primary-file"
	KeyConfigRoot    = "config-root"
	KeyFileNames     = "file-names"
	KeyIndexURL      = "index-url"
	KeyMarker        = "marker"
	KeyHTTPTimeout   = "http-timeout"
	KeyTelegram      = "telegram-enabled"
	KeyTelegramToken = "telegram-token"
	KeyTelegramUsers = "telegram-users"
	KeyMailServer    = "mail-server"
	KeyMailPort      = "mail-port"
	KeyMailFrom      = "mail-from"
	KeyMailTo        = "mail-to"
	KeyMailPassword  = "mail-password"
)

type Telegram struct {
	Enabled bool
	Token   string
	Users   []int64
}

type Mail struct {
	Server   string
	Port     int
	From     string
	To       string
	Password string
}

// Enabled reports whether enough is configured to send mail.
func (m Mail) Enabled() bool {
	return m.Server != "" && m.To != "" && m.From != ""
}

// AppConfig is the static configuration of a running daemon. Runtime tunables
// live in the settings file instead.
type AppConfig struct {
	SettingsPath string
	PrimaryFile  string
	ConfigRoot   string
	FileNames    []string
	IndexURL     string
	Marker       string
	HTTPTimeout  time.Duration
	Telegram     Telegram
	Mail         Mail
}

func defaults(v *viper.Viper) {
	v.SetDefault(KeySettings, "blacklist.properties")
	v.SetDefault(KeyPrimaryFile, "trading/PAIRS.properties")
	v.SetDefault(KeyConfigRoot, "config")
	v.SetDefault(KeyFileNames, pairsync.DefaultFileNames)
	v.SetDefault(KeyIndexURL, "")
	v.SetDefault(KeyMarker, "Binance Lists")
	v.SetDefault(KeyHTTPTimeout, "10s")
	v.SetDefault(KeyTelegram, false)
	v.SetDefault(KeyMailPort, 587)
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeySettings, "blacklist.properties", "Path of the settings file")
	fs.String(KeyPrimaryFile, "trading/PAIRS.properties", "Pair file of the trading bot")
	fs.String(KeyConfigRoot, "config", "Directory holding one subdirectory per feeder")
	fs.StringSlice(KeyFileNames, pairsync.DefaultFileNames, "Pair file names looked up in every feeder directory")
	fs.String(KeyIndexURL, "", "URL of the new listings index page")
	fs.String(KeyMarker, "Binance Lists", "Phrase that identifies listing announcements")
	fs.String(KeyHTTPTimeout, "10s", "Timeout of every HTTP request (e.g. 10s, 1m)")
}

// Load reads the configuration. envFiles are loaded into the environment first
// (missing files are ignored); flags, when not nil, win over the environment
// for every flag explicitly set.
func Load(flags *pflag.FlagSet, envFiles ...string) (*AppConfig, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	defaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	timeout, err := str2duration.ParseDuration(v.GetString(KeyHTTPTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyHTTPTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", KeyHTTPTimeout)
	}

	users, err := parseUsers(v.Get(KeyTelegramUsers))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyTelegramUsers, err)
	}

	cfg := &AppConfig{
		SettingsPath: v.GetString(KeySettings),
		PrimaryFile:  v.GetString(KeyPrimaryFile),
		ConfigRoot:   v.GetString(KeyConfigRoot),
		FileNames:    splitList(v.Get(KeyFileNames)),
		IndexURL:     v.GetString(KeyIndexURL),
		Marker:       v.GetString(KeyMarker),
		HTTPTimeout:  timeout,
		Telegram: Telegram{
			Enabled: v.GetBool(KeyTelegram),
			Token:   v.GetString(KeyTelegramToken),
			Users:   users,
		},
		Mail: Mail{
			Server:   v.GetString(KeyMailServer),
			Port:     v.GetInt(KeyMailPort),
			From:     v.GetString(KeyMailFrom),
			To:       v.GetString(KeyMailTo),
			Password: v.GetString(KeyMailPassword),
		},
	}

	if cfg.SettingsPath == "" {
		return nil, fmt.Errorf("%s cannot be empty", KeySettings)
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || len(cfg.Telegram.Users) == 0) {
		return nil, fmt.Errorf("telegram enabled but token or users missing")
	}

	return cfg, nil
}

// splitList accepts both a list value and a comma separated string from the environment.
func splitList(value any) []string {
	var raw []string
	if s, ok := value.(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = cast.ToStringSlice(value)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseUsers(value any) ([]int64, error) {
	users := make([]int64, 0)
	if value == nil {
		return users, nil
	}

	for _, item := range splitList(value) {
		id, err := cast.ToInt64E(item)
		if err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, nil
}
