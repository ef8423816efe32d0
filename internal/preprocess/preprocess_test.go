package preprocess

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	symerrors "github.com/conneroisu/symgen/internal/errors"
)

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\r\nb\r\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Empty(t, splitLines(""))
}

func TestOriginLabel(t *testing.T) {
	root := filepath.Join("third_party", "micropython")

	assert.Equal(t, "py/obj.c", originLabel(root, filepath.Join(root, "py", "obj.c")))
	assert.Equal(t, "/elsewhere/x.c", originLabel(root, "/elsewhere/x.c"))
	assert.Equal(t, "py/obj.c", originLabel("", "py/obj.c"))
}

func TestPassthroughExpand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.c")
	require.NoError(t, os.WriteFile(file, []byte("MP_QSTR_time\nMP_QSTR_sleep_ms\n"), 0o644))

	p := &Passthrough{SourceRoot: dir}
	unit, err := p.Expand(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, "mod.c", unit.Source)
	assert.Equal(t, []string{"MP_QSTR_time", "MP_QSTR_sleep_ms"}, unit.Lines)
}

func TestPassthroughExpandMissingFile(t *testing.T) {
	p := &Passthrough{SourceRoot: "/nowhere"}

	_, err := p.Expand(context.Background(), "/nowhere/missing.c")
	require.Error(t, err)
	assert.True(t, symerrors.IsType(err, symerrors.ErrorTypePreprocess))
}

// fakeCompiler writes a shell script standing in for cc so the test can
// observe exactly which flags Expand passes.
func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler script requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fakecc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCCExpand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "modtime.c")
	require.NoError(t, os.WriteFile(file, []byte("MP_QSTR_ticks_ms\n"), 0o644))

	// Echo the arguments, then the file contents, so both the flag set
	// and the line splitting are visible in the output.
	cc := fakeCompiler(t, `echo "argv: $@"`+"\n"+`for a; do last=$a; done`+"\n"+`cat "$last"`+"\n")

	p := NewCC(cc, []string{"include", dir}, []string{"NO_QSTR", "MICROPY_FOO=1"}, dir)
	unit, err := p.Expand(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, "modtime.c", unit.Source)
	require.NotEmpty(t, unit.Lines)

	argv := unit.Lines[0]
	assert.Contains(t, argv, "-E")
	assert.Contains(t, argv, "-DNO_QSTR")
	assert.Contains(t, argv, "-DMICROPY_FOO=1")
	assert.Contains(t, argv, "-Iinclude")
	assert.Contains(t, argv, "-I"+dir)
	assert.Equal(t, "MP_QSTR_ticks_ms", unit.Lines[len(unit.Lines)-1])

	// NO_QSTR must not be passed twice even though it was configured.
	assert.Equal(t, 1, countOccurrences(argv, "-DNO_QSTR"))
}

func TestCCExpandFailureCarriesStderr(t *testing.T) {
	cc := fakeCompiler(t, "echo 'modtime.c:3: unknown type' >&2\nexit 1\n")

	p := NewCC(cc, nil, nil, "")
	_, err := p.Expand(context.Background(), "modtime.c")
	require.Error(t, err)

	var serr *symerrors.SymgenError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, symerrors.ErrorTypePreprocess, serr.Type)
	assert.Equal(t, "modtime.c", serr.Source)
	assert.Contains(t, serr.Context["stderr"], "unknown type")
}

func TestNewCCDefaultsCommand(t *testing.T) {
	p := NewCC("", nil, nil, "")
	assert.Equal(t, "cc", p.Command)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
