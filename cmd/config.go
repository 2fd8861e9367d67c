package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/karstfen/soilcn/internal/config"
)

var configWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := activeConfig()
		fmt.Printf("store_path: %s\n", c.StorePath)
		fmt.Printf("burn_threshold: %g\n", c.BurnThreshold)
		fmt.Printf("lenient_replicates: %t\n", c.LenientReplicates)
		fmt.Printf("log_level: %s\n", c.LogLevel)
		if configWrite {
			if err := cfgpkg.Save(c, cfgFile); err != nil {
				return err
			}
			fmt.Println("✓ Saved config")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configWrite, "write", false, "write the configuration to soilcn.yaml")
}
