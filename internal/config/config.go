package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultScanTimeout    = 2 * time.Minute
	DefaultHighlightColor = "#FFA500"
	DefaultReportSheet    = "Keywords Report"
	DefaultWorkers        = 4
	DefaultEnvFile        = ".env"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF"
)

// ErrVersionRequested is returned by Load when --version is on the command line.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the highlighter binaries
type Config struct {
	// Server configuration
	Mode string `validate:"oneof=stdio server"`
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	// Directories. OutputDirectory defaults to PDFDirectory.
	PDFDirectory    string `validate:"required"`
	OutputDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string `validate:"oneof=debug info warn error"`
	MaxFileSize int64  `validate:"gt=0"` // Maximum PDF file size in bytes

	// Highlighting
	ScanTimeout    time.Duration `validate:"gt=0"`
	HighlightColor string        `validate:"hexcolor"`
	ReportSheet    string        `validate:"required,max=31,excludesall=:/\\?*[]"`
	Workers        int           `validate:"min=1,max=64"`

	// Keywords replaces the built-in catalog when a config file sets "catalog"
	Keywords []string `validate:"dive,required"`

	ConfigFile string
	EnvFile    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:           ModeStdio, // Default to stdio mode for MCP compatibility
		Host:           DefaultHost,
		Port:           DefaultPort,
		PDFDirectory:   currentDir,
		Version:        "1.0.0",
		ServerName:     "mcp-pdf-highlighter",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
		ScanTimeout:    DefaultScanTimeout,
		HighlightColor: DefaultHighlightColor,
		ReportSheet:    DefaultReportSheet,
		Workers:        DefaultWorkers,
		EnvFile:        DefaultEnvFile,
	}
}

// Loader reads configuration from flags, environment, an optional .env file
// and an optional config file, in that order of precedence.
type Loader struct {
	name string
	fs   *pflag.FlagSet
	v    *viper.Viper
}

// NewLoader defines the common flags on a fresh flag set. Binaries may add
// their own flags through Flags before calling Load.
func NewLoader(name string) *Loader {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	fs.String("output-dir", "", "Directory for highlighted archives (defaults to --dir)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Duration("scan-timeout", cfg.ScanTimeout, "Maximum time spent scanning one document")
	fs.String("color", cfg.HighlightColor, "Highlight color as #RRGGBB")
	fs.String("sheet", cfg.ReportSheet, "Worksheet name of the keyword report")
	fs.Int("workers", cfg.Workers, "Documents processed in parallel by batch runs")
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("env-file", cfg.EnvFile, "Optional .env file with MCP_PDF_* variables")
	fs.Bool("version", false, "Print version and exit")

	l := &Loader{name: name, fs: fs, v: viper.New()}
	l.setupUsageMessage()
	return l
}

// Flags returns the flag set so callers can register extra flags.
func (l *Loader) Flags() *pflag.FlagSet {
	return l.fs
}

// Load parses args and returns the validated configuration.
func (l *Loader) Load(args []string) (*Config, error) {
	if err := l.fs.Parse(args); err != nil {
		return nil, err
	}
	if v, _ := l.fs.GetBool("version"); v {
		return nil, ErrVersionRequested
	}

	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.v.AutomaticEnv()
	if err := l.v.BindPFlags(l.fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if path := l.v.GetString("config"); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	l.populate(cfg)

	// Expand paths if needed
	if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil && cfg.PDFDirectory != "" {
		cfg.PDFDirectory = expandedPath
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = cfg.PDFDirectory
	} else if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
		cfg.OutputDirectory = expandedPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile exports the variables of the .env file unless they are already
// set. A missing default file is not an error.
func (l *Loader) loadEnvFile() error {
	path, _ := l.fs.GetString("env-file")
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !l.fs.Changed("env-file") {
			return nil
		}
		return fmt.Errorf("cannot access env file %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// populate fills the config struct with values from viper
func (l *Loader) populate(cfg *Config) {
	cfg.Mode = l.v.GetString("mode")
	cfg.Host = l.v.GetString("host")
	cfg.Port = l.v.GetInt("port")
	cfg.PDFDirectory = l.v.GetString("dir")
	cfg.OutputDirectory = l.v.GetString("output-dir")
	cfg.LogLevel = l.v.GetString("loglevel")
	cfg.MaxFileSize = l.v.GetInt64("maxfilesize")
	cfg.ScanTimeout = l.v.GetDuration("scan-timeout")
	cfg.HighlightColor = l.v.GetString("color")
	cfg.ReportSheet = l.v.GetString("sheet")
	cfg.Workers = l.v.GetInt("workers")
	cfg.Keywords = l.v.GetStringSlice("catalog")
	cfg.ConfigFile = l.v.GetString("config")
	cfg.EnvFile = l.v.GetString("env-file")
}

// setupUsageMessage configures the custom usage message
func (l *Loader) setupUsageMessage() {
	l.fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", l.name)
		fmt.Fprintf(os.Stderr, "\nMCP PDF Highlighter - highlights planning keywords in PDF files and reports their pages\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		l.fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", l.name)
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", l.name)
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs       # HTTP upload server\n", l.name)
		fmt.Fprintf(os.Stderr, "  %s --config=highlighter.yaml               # custom keyword list\n", l.name)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_DIR          PDF directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_OUTPUT_DIR   Output directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_SCAN_TIMEOUT Scan timeout\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_COLOR        Highlight color\n")
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.Color(); err != nil {
		return err
	}

	if err := ensureDir(c.PDFDirectory, "PDF"); err != nil {
		return err
	}
	if c.OutputDirectory != "" && c.OutputDirectory != c.PDFDirectory {
		if err := ensureDir(c.OutputDirectory, "output"); err != nil {
			return err
		}
	}

	return nil
}

// ensureDir creates dir if it does not exist yet
func ensureDir(dir, label string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", label, dir, err)
	}
	return nil
}

// Color parses HighlightColor into the annotation color.
func (c *Config) Color() (color.SimpleColor, error) {
	return ParseColor(c.HighlightColor)
}

// ParseColor accepts #RGB or #RRGGBB.
func ParseColor(hex string) (color.SimpleColor, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.SimpleColor{}, fmt.Errorf("invalid color %q: expected #RRGGBB", hex)
	}

	rgb, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.SimpleColor{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.NewSimpleColor(uint32(rgb)), nil
}

// Catalog returns the keywords offered to users: the configured list, or the
// built-in planning catalog.
func (c *Config) Catalog() []string {
	if len(c.Keywords) > 0 {
		return append([]string(nil), c.Keywords...)
	}
	return keywords.Catalog()
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, OutputDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, ScanTimeout: %s, Keywords: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.ScanTimeout, len(c.Catalog()))
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
