package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/postlens/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. POSTLENS_LOG_LEVEL.
const EnvPrefix = "POSTLENS"

// Global configuration structure.
type Global struct {
	// Input selection
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	TableRows    int    `mapstructure:"table_rows" yaml:"table_rows"`
	ExportDir    string `mapstructure:"export_dir" yaml:"export_dir"`

	// Server
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	Watch      bool   `mapstructure:"watch" yaml:"watch"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"sheet_name", "sheet_index", "delimiter",
	"output_format", "table_rows", "export_dir",
	"listen_addr", "watch",
	"log_level", "log_format",
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		OutputFormat: "md",
		TableRows:    10,
		ExportDir:    ".",
		ListenAddr:   ":8080",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// DefaultPath returns ~/.postlens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".postlens", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.postlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by callers.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("table_rows", d.TableRows)
	v.SetDefault("export_dir", d.ExportDir)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file that is missing is fine too: `config set` creates it.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	return &c, nil
}

// Validate reports settings that cannot be used.
func (c *Global) Validate() error {
	switch c.OutputFormat {
	case "md", "json":
	default:
		return fmt.Errorf("output_format must be md or json, got %q", c.OutputFormat)
	}
	if c.SheetIndex < 0 {
		return fmt.Errorf("sheet_index must be >= 0, got %d", c.SheetIndex)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune parses Delimiter. Empty means auto-detect; "\t" and "tab" mean tab.
func (c *Global) DelimiterRune() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter parses a delimiter setting into a single rune, 0 for auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "\t", "tab":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}

// Get returns key in its string form.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "delimiter":
		return c.Delimiter, nil
	case "output_format":
		return c.OutputFormat, nil
	case "table_rows":
		return strconv.Itoa(c.TableRows), nil
	case "export_dir":
		return c.ExportDir, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "watch":
		return strconv.FormatBool(c.Watch), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
}

// Set assigns key from its string form.
func (c *Global) Set(key, value string) error {
	switch key {
	case "sheet_name":
		c.SheetName = value
	case "sheet_index":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		c.SheetIndex = n
	case "delimiter":
		c.Delimiter = value
	case "output_format":
		c.OutputFormat = strings.ToLower(strings.TrimSpace(value))
	case "table_rows":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		c.TableRows = n
	case "export_dir":
		c.ExportDir = value
	case "listen_addr":
		c.ListenAddr = value
	case "watch":
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			c.Watch = true
		case "false", "0", "no", "off":
			c.Watch = false
		default:
			return fmt.Errorf("watch must be true or false, got %q", value)
		}
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

// LoadEnv loads .env and .env.dev from the working directory when present.
// Later files override earlier ones and both override the process environment.
func LoadEnv(log logging.Logger) []string {
	files := []string{".env", ".env.dev"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if log != nil {
				log.WithError(err).Warnf("failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if log != nil && len(loaded) > 0 {
		log.Debugf("loaded env files: %s", strings.Join(loaded, ", "))
	}
	return loaded
}
