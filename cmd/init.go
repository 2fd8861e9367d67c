package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/karstfen/soilcn/internal/study"
	"github.com/karstfen/soilcn/internal/utils"
)

var initCmd = &cobra.Command{
	Use:   "init <study-name>",
	Short: "Initialize a new study workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root, err := filepath.Abs(name)
		if err != nil {
			return fmt.Errorf("resolve study path: %w", err)
		}
		// Refuse to overwrite an existing study.
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			studyFile := filepath.Join(root, "study.json")
			if _, err := os.Stat(studyFile); err == nil {
				return fmt.Errorf("study already exists at %s", root)
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				return fmt.Errorf("inspect study directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize study", root)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat study directory: %w", err)
		}
		for _, dir := range []string{root, filepath.Join(root, "data"), filepath.Join(root, ".soilcn")} {
			if err := utils.EnsureStudyDir(dir); err != nil {
				return err
			}
		}
		s := study.NewStudy(name, root)
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Study initialized: %s\n", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
