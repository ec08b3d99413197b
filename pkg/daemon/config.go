// Package daemon assembles the context and paste services into one HTTP
// server with config loading, logging and lifecycle management.
package daemon

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/draftpad/urlcontext/pkg/contextsvc"
	"github.com/draftpad/urlcontext/pkg/pastesvc"
)

// ExampleConfig is the annotated default configuration file.
//
//go:embed example-config.yaml
var ExampleConfig string

// Config is the daemon configuration file.
type Config struct {
	Server  ServerConfig      `yaml:"server" json:"server"`
	Context contextsvc.Config `yaml:"context" json:"context"`
	Paste   pastesvc.Config   `yaml:"paste" json:"paste"`
	Logging zeroconfig.Config `yaml:"logging" json:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen          string        `yaml:"listen" json:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// WithDefaults fills in zero fields with sensible defaults.
func (c ServerConfig) WithDefaults() ServerConfig {
	if c.Listen == "" {
		c.Listen = ":29340"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// LoadConfig reads a config file. The extension picks the format: .json and
// .json5 parse as JSON5, everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.Server = cfg.Server.WithDefaults()
	cfg.Context = cfg.Context.WithDefaults()
	cfg.Paste = cfg.Paste.WithDefaults()
	return &cfg, nil
}

// CompileLogger builds the root logger from the logging section. With no
// writers configured everything goes to stdout in pretty format.
func (c *Config) CompileLogger() (zerolog.Logger, error) {
	logCfg := c.Logging
	if len(logCfg.Writers) == 0 {
		logCfg.Writers = []zeroconfig.WriterConfig{{
			Type:   zeroconfig.WriterTypeStdout,
			Format: zeroconfig.LogFormatPrettyColored,
		}}
	}
	log, err := logCfg.Compile()
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("compiling logger: %w", err)
	}
	return *log, nil
}
