package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/karstfen/soilcn/internal/config"
	"github.com/karstfen/soilcn/internal/fire"
	"github.com/karstfen/soilcn/internal/logging"
	"github.com/karstfen/soilcn/internal/store"
	"github.com/karstfen/soilcn/internal/study"
	"github.com/karstfen/soilcn/internal/utils"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagStorePath string

	// Loaded configuration and logger shared by subcommands
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "soilcn",
	Short: "soilcn: soil carbon/nitrogen study pipeline",
	Long: `soilcn turns raw soil-core measurements, plot topography and fire
history into analysis-ready tables: it classifies field samples against
lab standards, averages replicates per core, derives per-area carbon
and nitrogen metrics, joins site attributes and fire severity, and fits
comparative models over the result. Tables persist in a per-study
sqlite store.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./soilcn.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagStorePath, "store", "", "table store path (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	} else {
		cfg = c
	}
	c = activeConfig()

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("store") && flagStorePath != "" {
		c.StorePath = flagStorePath
	}

	level := c.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to build logger: %v\n", err)
		return
	}
	logger = l
}

// activeConfig returns the loaded configuration, or the built-in
// defaults when no config was loaded.
func activeConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = &cfgpkg.Global{
			StorePath:     filepath.Join(".soilcn", "tables.db"),
			BurnThreshold: fire.DefaultBurnThreshold,
			LogLevel:      "info",
		}
	}
	return cfg
}

// openStudyStore locates the enclosing study and opens its table
// store. Callers close the store.
func openStudyStore() (*study.Study, *store.Store, error) {
	root, err := utils.FindStudyRoot("")
	if err != nil {
		return nil, nil, fmt.Errorf("not inside a study (run soilcn init first): %w", err)
	}
	s, err := study.LoadStudy(root)
	if err != nil {
		return nil, nil, err
	}
	path := activeConfig().ResolveStorePath(root)
	if err := utils.EnsureStudyDir(filepath.Dir(path)); err != nil {
		return nil, nil, fmt.Errorf("ensure store dir: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return s, st, nil
}
