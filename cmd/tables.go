package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/karstfen/soilcn/internal/analysis"
	"github.com/karstfen/soilcn/internal/table"
)

var (
	showLimit int
	showStats bool
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect tables saved in the study store",
}

var tablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		infos, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("(no tables saved)")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("- %s: %d rows, %d columns (saved %s)\n",
				info.Key, info.Rows, info.Columns, info.SavedAt)
		}
		return nil
	},
}

var tablesShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the head of a saved table, or column statistics with --stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		_, st, err := openStudyStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tab, err := st.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		if showStats {
			return analysis.RenderSummary(os.Stdout, key, tab)
		}
		printHead(key, tab, showLimit)
		return nil
	},
}

// printHead writes the first n rows as aligned text columns.
func printHead(key string, tab *table.Table, n int) {
	fmt.Printf("table %s: %d rows, %d columns\n", key, tab.NumRows(), tab.NumCols())
	if n > tab.NumRows() {
		n = tab.NumRows()
	}

	names := tab.Schema.Names()
	widths := make([]int, len(names))
	for j, name := range names {
		widths[j] = len(name)
	}
	cells := make([][]string, n)
	for i := 0; i < n; i++ {
		cells[i] = make([]string, len(names))
		for j, v := range tab.Rows[i] {
			s := cellString(v)
			cells[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	for j, name := range names {
		fmt.Printf("%-*s  ", widths[j], name)
	}
	fmt.Println()
	for i := 0; i < n; i++ {
		for j := range names {
			fmt.Printf("%-*s  ", widths[j], cells[i][j])
		}
		fmt.Println()
	}
	if n < tab.NumRows() {
		fmt.Printf("… %d more rows\n", tab.NumRows()-n)
	}
}

func cellString(v table.Value) string {
	switch x := v.(type) {
	case table.Float:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case table.Int:
		return strconv.FormatInt(int64(x), 10)
	case table.String:
		return string(x)
	case table.Factor:
		return string(x)
	case table.Bool:
		return strconv.FormatBool(bool(x))
	default:
		return "NA"
	}
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.AddCommand(tablesListCmd)
	tablesCmd.AddCommand(tablesShowCmd)

	tablesShowCmd.Flags().IntVar(&showLimit, "limit", 10, "rows to print")
	tablesShowCmd.Flags().BoolVar(&showStats, "stats", false, "print per-column statistics instead of rows")
}
