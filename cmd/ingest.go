package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/karstfen/soilcn/internal/fire"
	"github.com/karstfen/soilcn/internal/ingest"
	"github.com/karstfen/soilcn/internal/sample"
	"github.com/karstfen/soilcn/internal/site"
)

var (
	ingestLenient bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a source data file into the study's table store",
}

var ingestCoresCmd = &cobra.Command{
	Use:   "cores <file>",
	Short: "Ingest raw core measurements: classify, aggregate, persist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		s, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		raw, err := ingest.Load(file, sample.RawSchema(), logger)
		if err != nil {
			return err
		}
		split, err := sample.Classify(raw, logger)
		if err != nil {
			return err
		}
		opts := sample.AggregateOptions{Lenient: ingestLenient || activeConfig().LenientReplicates}
		means, err := sample.AggregateCores(split.Samples, opts, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := st.Save(ctx, "samples", split.Samples); err != nil {
			return err
		}
		if err := st.Save(ctx, "standards", split.Standards); err != nil {
			return err
		}
		if err := st.Save(ctx, "sample_means", means); err != nil {
			return err
		}
		s.AddSource(file, "cores", []string{"samples", "standards", "sample_means"}, raw.NumRows())
		if err := s.Save(); err != nil {
			return err
		}

		fmt.Printf("✓ Ingested %s: %d rows (%d samples, %d standards, %d unclassified)\n",
			filepath.Base(file), raw.NumRows(),
			split.Samples.NumRows(), split.Standards.NumRows(), split.Unclassified)
		fmt.Printf("✓ Averaged replicates: %d cores in sample_means\n", means.NumRows())
		return nil
	},
}

var ingestTopoCmd = &cobra.Command{
	Use:   "topo <file>",
	Short: "Ingest per-plot topographic attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		s, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		topo, err := ingest.Load(file, site.TopoSchema(), logger)
		if err != nil {
			return err
		}
		if err := st.Save(cmd.Context(), "topo", topo); err != nil {
			return err
		}
		s.AddSource(file, "topo", []string{"topo"}, topo.NumRows())
		if err := s.Save(); err != nil {
			return err
		}

		fmt.Printf("✓ Ingested %s: %d plots into topo\n", filepath.Base(file), topo.NumRows())
		return nil
	},
}

var ingestFiresCmd = &cobra.Command{
	Use:   "fires <file>",
	Short: "Ingest fire history and derive the per-plot severity index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		s, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		hist, err := ingest.Load(file, fire.HistorySchema(), logger)
		if err != nil {
			return err
		}
		years, err := fire.BuildYearTable(hist, activeConfig().BurnThreshold, logger)
		if err != nil {
			return err
		}
		sev, err := fire.SeverityIndex(years, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := st.Save(ctx, "fires", years); err != nil {
			return err
		}
		if err := st.Save(ctx, "fire_severity", sev); err != nil {
			return err
		}
		s.AddSource(file, "fires", []string{"fires", "fire_severity"}, years.NumRows())
		if err := s.Save(); err != nil {
			return err
		}

		fmt.Printf("✓ Ingested %s: %d plot-years into fires\n", filepath.Base(file), years.NumRows())
		fmt.Printf("✓ Severity index covers %d plots\n", sev.NumRows())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestCoresCmd)
	ingestCmd.AddCommand(ingestTopoCmd)
	ingestCmd.AddCommand(ingestFiresCmd)

	ingestCoresCmd.Flags().BoolVar(&ingestLenient, "lenient", false, "tolerate replicate rows that disagree on carried fields")
}
