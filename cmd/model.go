package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karstfen/soilcn/internal/model"
)

var (
	modelResponse string
	modelTerms    []string
	modelWeighted bool
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Fit comparative models over the dataset table and rank by AIC",
	Example: `  soilcn model --response carbonperarea --terms tsf,nfires
  soilcn model --response cnratio --terms severity,northness --weighted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modelResponse == "" {
			return fmt.Errorf("--response is required")
		}
		if len(modelTerms) == 0 {
			return fmt.Errorf("--terms is required")
		}
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		dataset, err := st.Load(cmd.Context(), "dataset")
		if err != nil {
			return err
		}

		null, err := model.FitOLS(dataset, "null", modelResponse, nil, logger)
		if err != nil {
			return err
		}
		full, err := model.FitOLS(dataset, "full", modelResponse, modelTerms, logger)
		if err != nil {
			return err
		}
		fits := []*model.Fit{null, full}
		if modelWeighted {
			weighted, err := model.FitWLS(dataset, "weighted", modelResponse, modelTerms, "weight", logger)
			if err != nil {
				return err
			}
			fits = append(fits, weighted)
		}

		if err := model.RenderComparison(os.Stdout, fits); err != nil {
			return err
		}
		for _, f := range model.Compare(fits) {
			fmt.Printf("\n%s: %s\n", f.Name, f.Formula())
			fmt.Printf("  %-14s %.6g\n", "(intercept)", f.Coef[0])
			for i, term := range f.Terms {
				fmt.Printf("  %-14s %.6g\n", term, f.Coef[i+1])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)

	modelCmd.Flags().StringVar(&modelResponse, "response", "", "response column")
	modelCmd.Flags().StringSliceVar(&modelTerms, "terms", nil, "predictor columns (comma separated)")
	modelCmd.Flags().BoolVar(&modelWeighted, "weighted", false, "also fit using the weight column")
}
