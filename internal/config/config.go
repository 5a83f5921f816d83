package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RFQEDIT_SERVER.
const EnvPrefix = "RFQEDIT"

// Configuration keys. Flags bound to Load use the same names with "-"
// in place of "_".
const (
	KeyServer   = "server"
	KeyRFQID    = "rfq_id"
	KeyTimeout  = "timeout"
	KeyRetries  = "retries"
	KeyLogLevel = "log_level"
	KeyLogFile  = "log_file"
	KeyLayout   = "layout"
)

// Defaults
const (
	DefaultServer  = "http://localhost:5012"
	DefaultRFQID   = 1
	DefaultTimeout = 10 * time.Second
)

// Config is the resolved runtime configuration.
type Config struct {
	Server   string        `yaml:"server"`
	RFQID    int           `yaml:"rfq_id"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	LogLevel string        `yaml:"log_level,omitempty"`
	LogFile  string        `yaml:"log_file,omitempty"`
	Layout   string        `yaml:"layout,omitempty"`

	// File is the config file that was read, if any.
	File string `yaml:"-"`
}

// Load resolves the configuration from, in increasing precedence: defaults,
// the config file (path, or config.yaml in the config directory),
// RFQEDIT_* environment variables and the changed flags of flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyRFQID, DefaultRFQID)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyRetries, 0)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(strings.TrimSuffix(configFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{KeyServer, KeyRFQID, KeyTimeout, KeyRetries, KeyLogLevel, KeyLogFile, KeyLayout} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server:   strings.TrimRight(v.GetString(KeyServer), "/"),
		RFQID:    v.GetInt(KeyRFQID),
		Timeout:  v.GetDuration(KeyTimeout),
		Retries:  v.GetInt(KeyRetries),
		LogLevel: v.GetString(KeyLogLevel),
		LogFile:  v.GetString(KeyLogFile),
		Layout:   v.GetString(KeyLayout),
		File:     v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q: expected http(s)://host[:port]", c.Server)
	}
	if c.RFQID < 1 {
		return fmt.Errorf("invalid rfq_id %d: must be positive", c.RFQID)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %v: must be positive", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("invalid retries %d: must not be negative", c.Retries)
	}
	return nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# rfqedit configuration
# Every key can be overridden with an RFQEDIT_<KEY> environment variable
# or the matching command-line flag.

`)
	return writeAtomic(path, append(header, data...))
}
