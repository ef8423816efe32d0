package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/symgen/internal/config"
	"github.com/conneroisu/symgen/internal/data"
	"github.com/conneroisu/symgen/internal/generator"
	"github.com/conneroisu/symgen/internal/logging"
	"github.com/conneroisu/symgen/internal/preprocess"
	"github.com/conneroisu/symgen/internal/renderer"
	"github.com/conneroisu/symgen/internal/symbols"
	"github.com/conneroisu/symgen/internal/types"
	"github.com/conneroisu/symgen/internal/version"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Scan the interpreter sources and render the generated headers",
	Long: `Preprocess every configured translation unit, extract qstr references and
module registrations, and render the generated headers:

  mpconfigport.h               Port configuration (qstr widths)
  genhdr/qstrdefs.generated.h  The interned string table
  genhdr/moduledefs.h          Module registry
  genhdr/root_pointers.h       Root pointer declarations
  genhdr/mpversion.h           Build version stamp

The run is all-or-nothing: any error aborts before partial output is
published over a previous good tree.

Examples:
  symgen generate                        # Use .symgen.yml settings
  symgen generate --output build/include # Override the output directory
  symgen generate --workers 8            # Preprocess 8 units at a time`,
	RunE: runGenerateCommand,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output", "o", "", "output include directory")
	generateCmd.Flags().String("source-root", "", "interpreter source tree")
	generateCmd.Flags().Int("workers", 0, "concurrent preprocessor invocations (0 = sequential)")
	generateCmd.Flags().StringSlice("extra-qstr", nil, "extra qstrs appended after scanning")
	bindFlag("generate.output_dir", generateCmd.Flags().Lookup("output"))
	bindFlag("source.root", generateCmd.Flags().Lookup("source-root"))
	bindFlag("generate.workers", generateCmd.Flags().Lookup("workers"))
	bindFlag("generate.extra_qstrs", generateCmd.Flags().Lookup("extra-qstr"))
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	return generateOnce(cmd.Context(), cfg, logger)
}

// generateOnce runs the full pipeline: config header and placeholders first
// so the preprocessor can resolve includes, then extraction, then the real
// headers.
func generateOnce(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	builtins, err := loadData(cfg)
	if err != nil {
		return err
	}

	r, err := renderer.New(cfg.Generate.OutputDir, logger)
	if err != nil {
		return err
	}

	portCfg := portConfig(cfg)
	if err := r.WriteConfigHeader(ctx, portCfg); err != nil {
		return err
	}
	if err := r.WritePlaceholders(ctx); err != nil {
		return err
	}

	extracted, err := extractData(ctx, cfg, builtins, logger)
	if err != nil {
		return err
	}

	if err := r.RenderGenerated(ctx, portCfg, extracted); err != nil {
		return err
	}

	logger.Info(ctx, "generation complete",
		"output", cfg.Generate.OutputDir,
		"qstrs", len(extracted.AllQstrs),
		"modules", len(extracted.Modules)+len(extracted.ExtensibleModules)+len(extracted.ModuleDelegations),
	)

	return nil
}

// extractData runs extraction only, without touching the output tree.
func extractData(ctx context.Context, cfg *config.Config, builtins *data.Data, logger logging.Logger) (*types.ExtractedData, error) {
	files, err := cfg.Source.SourceFiles()
	if err != nil {
		return nil, err
	}

	gen := generator.New(generator.Options{
		BytesInHash: symbols.BytesIn(cfg.Generate.BytesInHash),
		ExtraQstrs:  cfg.Generate.ExtraQstrs,
		Workers:     cfg.Generate.Workers,
	}, builtins, newPreprocessor(cfg), logger)

	return gen.Extract(ctx, files)
}

func loadData(cfg *config.Config) (*data.Data, error) {
	if cfg.Generate.DataDir != "" {
		return data.LoadFromDir(cfg.Generate.DataDir)
	}
	return data.Load()
}

func newPreprocessor(cfg *config.Config) preprocess.Preprocessor {
	if cfg.Source.Mode == "raw" {
		return &preprocess.Passthrough{SourceRoot: cfg.Source.Root}
	}

	includeDirs := append([]string{".", cfg.Generate.OutputDir, cfg.Source.Root}, cfg.Source.IncludeDirs...)
	return preprocess.NewCC(cfg.Source.Compiler, includeDirs, cfg.Source.Defines, cfg.Source.Root)
}

func portConfig(cfg *config.Config) renderer.PortConfig {
	info := version.GetBuildInfo()
	return renderer.PortConfig{
		BytesInHash: cfg.Generate.BytesInHash,
		BytesInLen:  cfg.Generate.BytesInLen,
		Version:     info.Version,
		GitCommit:   info.GitCommit,
		BuildDate:   info.BuildDate(),
	}
}
