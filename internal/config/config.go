package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// StorePath is the sqlite file holding saved tables, resolved
	// relative to the study root when not absolute.
	StorePath string `mapstructure:"store_path" yaml:"store_path"`

	// BurnThreshold is the burn percentage at or above which a
	// plot-year counts as burnt.
	BurnThreshold float64 `mapstructure:"burn_threshold" yaml:"burn_threshold"`

	// LenientReplicates tolerates replicate rows of one core that
	// disagree on carried fields, keeping the first value seen.
	LenientReplicates bool `mapstructure:"lenient_replicates" yaml:"lenient_replicates"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

const configFileName = "soilcn.yaml"

// Save writes the given configuration to the cfgFile path. If cfgFile
// is empty, it writes soilcn.yaml in the current directory.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = configFileName
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
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SOILCN")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store_path", filepath.Join(".soilcn", "tables.db"))
	v.SetDefault("burn_threshold", 20.0)
	v.SetDefault("lenient_replicates", false)
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("soilcn")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// ResolveStorePath anchors a relative store path at the study root.
func (c *Global) ResolveStorePath(studyRoot string) string {
	if filepath.IsAbs(c.StorePath) || studyRoot == "" {
		return c.StorePath
	}
	return filepath.Join(studyRoot, c.StorePath)
}
