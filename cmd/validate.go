package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/symgen/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and data files",
	Long: `Load and validate the merged configuration, the built-in (or overridden)
data files, and the source selection. Reports how many translation units
the current patterns select without scanning any of them.

Exits non-zero if anything is invalid.`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Println("✓ Configuration valid")

	builtins, err := loadData(cfg)
	if err != nil {
		return fmt.Errorf("data files invalid: %w", err)
	}
	fmt.Printf("✓ Data files valid (%d translations, %d static, %d unsorted qstrs)\n",
		len(builtins.IdentTranslations), len(builtins.StaticQstrs), len(builtins.UnsortedQstrs))

	files, err := cfg.Source.SourceFiles()
	if err != nil {
		return fmt.Errorf("source selection invalid: %w", err)
	}
	fmt.Printf("✓ Source patterns select %d translation units under %s\n",
		len(files), cfg.Source.Root)

	return nil
}
