package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karstfen/soilcn/internal/analysis"
	"github.com/karstfen/soilcn/internal/sample"
	"github.com/karstfen/soilcn/internal/site"
	"github.com/karstfen/soilcn/internal/store"
	"github.com/karstfen/soilcn/internal/table"
)

var (
	buildWithSeverity bool
	buildWithWeights  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Derive tables from previously ingested sources",
}

var buildSitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Build the one-row-per-plot site table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		samples, err := st.Load(ctx, "samples")
		if err != nil {
			return err
		}
		var topo *table.Table
		topo, err = st.Load(ctx, "topo")
		if err != nil {
			if !store.IsTableNotFoundError(err) {
				return err
			}
			topo = nil
			fmt.Println("  (no topo table ingested; topographic fields will be missing)")
		}

		sites, err := site.Build(samples, topo, site.DefaultCodeMaps(), logger)
		if err != nil {
			return err
		}
		if err := st.Save(ctx, "sites", sites); err != nil {
			return err
		}
		fmt.Printf("✓ Built sites: %d plots\n", sites.NumRows())
		return nil
	},
}

var buildMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Derive per-area carbon and nitrogen metrics per core",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		means, err := st.Load(ctx, "sample_means")
		if err != nil {
			return err
		}
		metrics, err := sample.DeriveMetrics(means)
		if err != nil {
			return err
		}
		if err := st.Save(ctx, "core_metrics", metrics); err != nil {
			return err
		}
		fmt.Printf("✓ Built core_metrics: %d cores\n", metrics.NumRows())
		return nil
	},
}

var buildDatasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Join core metrics, sites and optional fire severity into the modeling dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		metrics, err := st.Load(ctx, "core_metrics")
		if err != nil {
			return err
		}
		sites, err := st.Load(ctx, "sites")
		if err != nil {
			return err
		}
		var severity *table.Table
		if buildWithSeverity {
			severity, err = st.Load(ctx, "fire_severity")
			if err != nil {
				return err
			}
		}

		dataset, err := analysis.BuildDataset(metrics, sites, severity, logger)
		if err != nil {
			return err
		}
		if buildWithWeights {
			dataset, err = analysis.AttachFireCountWeights(dataset, logger)
			if err != nil {
				return err
			}
		}
		if err := st.Save(ctx, "dataset", dataset); err != nil {
			return err
		}
		fmt.Printf("✓ Built dataset: %d cores, %d columns\n", dataset.NumRows(), dataset.NumCols())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.AddCommand(buildSitesCmd)
	buildCmd.AddCommand(buildMetricsCmd)
	buildCmd.AddCommand(buildDatasetCmd)

	buildDatasetCmd.Flags().BoolVar(&buildWithSeverity, "severity", false, "join the fire severity index")
	buildDatasetCmd.Flags().BoolVar(&buildWithWeights, "weights", false, "attach fire-count observation weights")
}
