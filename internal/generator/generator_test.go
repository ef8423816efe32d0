package generator

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/symgen/internal/data"
	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/logging"
	"github.com/conneroisu/symgen/internal/preprocess"
	"github.com/conneroisu/symgen/internal/symbols"
	"github.com/conneroisu/symgen/internal/types"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Format: "text",
		Output: io.Discard,
	})
}

// mapPreprocessor serves expanded units from an in-memory corpus.
func mapPreprocessor(corpus map[string]string) preprocess.Preprocessor {
	return &preprocess.Passthrough{
		ReadFile: func(name string) ([]byte, error) {
			content, ok := corpus[name]
			if !ok {
				return nil, os.ErrNotExist
			}
			return []byte(content), nil
		},
	}
}

var testCorpus = map[string]string{
	"py/modtime.c": "mp_obj_t f(void) { return MP_QSTR_ticks_ms; }\n" +
		"MP_QSTR_sleep_ms\n" +
		"MP_REGISTER_MODULE(MP_QSTR_time, mod_time);\n",
	"py/modos.c": "MP_QSTR_sleep_ms MP_QSTR_uname\n" +
		"MP_REGISTER_EXTENSIBLE_MODULE(MP_QSTR_os, mod_os);\n" +
		"MP_REGISTER_MODULE_DELEGATION(mp_module_os, mp_module_os_attr);\n",
}

func newGenerator(t *testing.T, opts Options, corpus map[string]string) *Generator {
	t.Helper()
	d, err := data.Load()
	require.NoError(t, err)
	if opts.BytesInHash == 0 {
		opts.BytesInHash = symbols.BytesInTwo
	}
	return New(opts, d, mapPreprocessor(corpus), testLogger())
}

func TestExtractPipeline(t *testing.T) {
	g := newGenerator(t, Options{ExtraQstrs: []string{"host_main", "host_exit"}}, testCorpus)

	result, err := g.Extract(context.Background(), []string{"py/modtime.c", "py/modos.c"})
	require.NoError(t, err)

	d, err := data.Load()
	require.NoError(t, err)

	// Static pool is the built-in list, untouched by the scan.
	require.Len(t, result.StaticQstrs, len(d.StaticQstrs))

	// Discovered tail: scan discoveries in unit order then line order,
	// then the configured extras in configuration order.
	vals := make([]string, 0, len(result.UnsortedQstrs))
	for _, q := range result.UnsortedQstrs {
		vals = append(vals, q.Val)
	}
	n := len(vals)
	require.GreaterOrEqual(t, n, 7)
	assert.Equal(t,
		[]string{"ticks_ms", "sleep_ms", "time", "uname", "os", "host_main", "host_exit"},
		vals[n-7:])

	// Extras are tagged as configured, not scanned.
	extras := result.UnsortedQstrs[n-2:]
	for _, q := range extras {
		assert.Equal(t, types.PoolUnsorted, q.Pool)
		assert.Equal(t, symbols.SourceConfig, q.Source)
	}

	// AllQstrs is exactly static followed by unsorted.
	require.Len(t, result.AllQstrs, len(result.StaticQstrs)+len(result.UnsortedQstrs))
	assert.Equal(t, result.StaticQstrs, result.AllQstrs[:len(result.StaticQstrs)])
	assert.Equal(t, result.UnsortedQstrs, result.AllQstrs[len(result.StaticQstrs):])

	// Module records land in their kind's list.
	require.Len(t, result.Modules, 1)
	assert.Equal(t, "TIME", result.Modules[0].UpperName)
	assert.Equal(t, "py/modtime.c", result.Modules[0].Source)
	require.Len(t, result.ExtensibleModules, 1)
	assert.Equal(t, "OS", result.ExtensibleModules[0].UpperName)
	require.Len(t, result.ModuleDelegations, 1)
	assert.Equal(t, "mp_module_os_attr", result.ModuleDelegations[0].Symbol)
}

func TestExtractParallelMatchesSequential(t *testing.T) {
	// Build a corpus large enough that completion order would scramble
	// discovery order if the merge were not input-ordered.
	corpus := make(map[string]string)
	files := make([]string, 0, 32)
	for i := 0; i < 32; i++ {
		name := string(rune('a'+i%26)) + "_" + string(rune('0'+i/26)) + ".c"
		corpus[name] = "MP_QSTR_sym_" + name[:1] + string(rune('0'+i/26)) + " MP_QSTR_shared\n"
		files = append(files, name)
	}

	sequential := newGenerator(t, Options{Workers: 1}, corpus)
	parallel := newGenerator(t, Options{Workers: 8}, corpus)

	seqResult, err := sequential.Extract(context.Background(), files)
	require.NoError(t, err)
	parResult, err := parallel.Extract(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, seqResult, parResult)
}

func TestExtractMissingFileAborts(t *testing.T) {
	g := newGenerator(t, Options{}, testCorpus)

	_, err := g.Extract(context.Background(), []string{"py/modtime.c", "py/missing.c"})
	require.Error(t, err)
	assert.True(t, symerrors.IsType(err, symerrors.ErrorTypePreprocess))
}

func TestExtractNoFiles(t *testing.T) {
	g := newGenerator(t, Options{}, testCorpus)

	result, err := g.Extract(context.Background(), nil)
	require.NoError(t, err)

	d, err := data.Load()
	require.NoError(t, err)

	// With nothing scanned the pools are exactly the built-ins.
	assert.Len(t, result.StaticQstrs, len(d.StaticQstrs))
	assert.Len(t, result.UnsortedQstrs, len(d.UnsortedQstrs))
	assert.Empty(t, result.Modules)
}
