// Package generator drives one extraction run: it expands every translation
// unit, feeds the lines through the qstr and module extractors in a fixed
// order, appends configured extra qstrs, and assembles the final data model
// the renderer consumes.
package generator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/symgen/internal/data"
	"github.com/conneroisu/symgen/internal/logging"
	"github.com/conneroisu/symgen/internal/modules"
	"github.com/conneroisu/symgen/internal/preprocess"
	"github.com/conneroisu/symgen/internal/symbols"
	"github.com/conneroisu/symgen/internal/types"
)

// Options configures one extraction run.
type Options struct {
	// BytesInHash selects the qstr hash width.
	BytesInHash symbols.BytesIn
	// ExtraQstrs are synthesized as discovered records after scanning, in
	// the order given here.
	ExtraQstrs []string
	// Workers bounds how many translation units are preprocessed
	// concurrently. Values below 2 preprocess sequentially. Scanning
	// itself always happens in input-file order so discovery order stays
	// a pure function of the input.
	Workers int
}

// Generator owns the collaborators for a run.
type Generator struct {
	opts   Options
	data   *data.Data
	pre    preprocess.Preprocessor
	logger logging.Logger
}

// New creates a generator. The data set and preprocessor are borrowed for
// the lifetime of the generator and must not be mutated by the caller.
func New(opts Options, d *data.Data, pre preprocess.Preprocessor, logger logging.Logger) *Generator {
	return &Generator{
		opts:   opts,
		data:   d,
		pre:    pre,
		logger: logger.WithComponent("generator"),
	}
}

// Extract runs the full pipeline over the given source files and returns
// the consolidated result. The first error aborts the run; partial results
// are never returned.
func (g *Generator) Extract(ctx context.Context, files []string) (*types.ExtractedData, error) {
	qstrExtractor, err := symbols.NewExtractor(g.opts.BytesInHash, g.data)
	if err != nil {
		return nil, err
	}
	moduleExtractor, err := modules.NewExtractor()
	if err != nil {
		return nil, err
	}

	units, err := g.expandAll(ctx, files)
	if err != nil {
		return nil, err
	}

	// Units are scanned strictly in input-file order, line by line, even
	// when they were preprocessed concurrently: the seen-identifier set
	// dedupes on first occurrence, so feeding order is the ordering
	// contract.
	for _, unit := range units {
		for _, line := range unit.Lines {
			if err := qstrExtractor.ProcessLine(unit.Source, line); err != nil {
				return nil, err
			}
			if err := moduleExtractor.ProcessLine(unit.Source, line); err != nil {
				return nil, err
			}
		}
	}

	qstrs, err := qstrExtractor.Finish()
	if err != nil {
		return nil, err
	}
	mods := moduleExtractor.Finish()

	for _, extra := range g.opts.ExtraQstrs {
		q, err := symbols.New(g.opts.BytesInHash, g.data, extra, types.PoolUnsorted, symbols.SourceConfig)
		if err != nil {
			return nil, err
		}
		qstrs.UnsortedQstrs = append(qstrs.UnsortedQstrs, q)
	}

	allQstrs := make([]types.QStr, 0, len(qstrs.StaticQstrs)+len(qstrs.UnsortedQstrs))
	allQstrs = append(allQstrs, qstrs.StaticQstrs...)
	allQstrs = append(allQstrs, qstrs.UnsortedQstrs...)

	g.logger.Info(ctx, "extraction complete",
		"units", len(units),
		"static_qstrs", len(qstrs.StaticQstrs),
		"unsorted_qstrs", len(qstrs.UnsortedQstrs),
		"modules", len(mods.Modules),
		"extensible_modules", len(mods.ExtensibleModules),
		"module_delegations", len(mods.ModuleDelegations),
	)

	return &types.ExtractedData{
		StaticQstrs:       qstrs.StaticQstrs,
		UnsortedQstrs:     qstrs.UnsortedQstrs,
		AllQstrs:          allQstrs,
		Modules:           mods.Modules,
		ExtensibleModules: mods.ExtensibleModules,
		ModuleDelegations: mods.ModuleDelegations,
	}, nil
}

// expandAll preprocesses every file and returns the units indexed by input
// position. Expansion may run concurrently; the returned slice order never
// depends on completion order.
func (g *Generator) expandAll(ctx context.Context, files []string) ([]*preprocess.Unit, error) {
	units := make([]*preprocess.Unit, len(files))

	if g.opts.Workers < 2 {
		for i, file := range files {
			unit, err := g.pre.Expand(ctx, file)
			if err != nil {
				return nil, err
			}
			g.logger.Debug(ctx, "expanded unit", "source", unit.Source, "lines", len(unit.Lines))
			units[i] = unit
		}
		return units, nil
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Workers)
	for i, file := range files {
		i, file := i, file
		grp.Go(func() error {
			unit, err := g.pre.Expand(ctx, file)
			if err != nil {
				return err
			}
			units[i] = unit
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}
