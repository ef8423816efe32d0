package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/symgen/internal/data"
	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/types"
)

func loadData(t *testing.T) *data.Data {
	t.Helper()
	d, err := data.Load()
	require.NoError(t, err)
	return d
}

func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		val    string
		hash8  uint32
		hash16 uint32
	}{
		{"", 5, 5381},
		{"time", 240, 49648},
		{"\n", 175, 46511},
		{"<module>", 189, 38077},
		{"utf-8", 183, 33463},
		{"__del__", 104, 14184},
		{"format", 38, 13094},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.hash8, Hash([]byte(tt.val), BytesInOne), "8-bit hash of %q", tt.val)
		assert.Equal(t, tt.hash16, Hash([]byte(tt.val), BytesInTwo), "16-bit hash of %q", tt.val)
	}
}

func TestHashNeverZero(t *testing.T) {
	// These strings mask to 0 under the raw DJB accumulator; the computed
	// hash must come back as 1 because 0 is the runtime's sentinel for
	// "hash not yet computed".
	assert.Equal(t, uint32(1), Hash([]byte("hm"), BytesInOne))
	assert.Equal(t, uint32(1), Hash([]byte("dndk"), BytesInTwo))
}

func TestIdentTranslations(t *testing.T) {
	d := loadData(t)

	tests := []struct {
		val   string
		ident string
	}{
		{"time", "MP_QSTR_time"},
		{"", "MP_QSTR_"},
		{"<module>", "MP_QSTR__lt_module_gt_"},
		{"utf-8", "MP_QSTR_utf_hyphen_8"},
		{"\n", "MP_QSTR__0x0a_"},
		{" ", "MP_QSTR__space_"},
		{"__del__", "MP_QSTR___del__"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ident, Ident(d, tt.val), "ident of %q", tt.val)
	}
}

func TestIdentPassesUntranslatedCharsThrough(t *testing.T) {
	d := loadData(t)

	// Characters outside the translation table are not validated; they
	// flow into the identifier unchanged.
	assert.Equal(t, "MP_QSTR_café", Ident(d, "café"))
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		name    string
		val     string
		escaped string
	}{
		{"plain", "time", "time"},
		{"empty", "", ""},
		{"non-ascii without controls kept verbatim", "café", "café"},
		{"newline", "\n", `\x0a`},
		{"mixed escapes everything", "a\tb", `\x61\x09\x62`},
		{"delete is a control char", "\x7f", `\x7f`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped, err := escapeString(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.escaped, escaped)
		})
	}
}

func TestEscapeStringRejectsNonASCIIWithControls(t *testing.T) {
	_, err := escapeString("café\n")
	require.Error(t, err)
	assert.True(t, symerrors.IsType(err, symerrors.ErrorTypeEncoding))
}

func TestNewRecord(t *testing.T) {
	d := loadData(t)

	q, err := New(BytesInTwo, d, "time", types.PoolUnsorted, "py/modtime.c")
	require.NoError(t, err)

	assert.Equal(t, types.PoolUnsorted, q.Pool)
	assert.Equal(t, "time", q.Val)
	assert.Equal(t, "time", q.EscapedVal)
	assert.Equal(t, "MP_QSTR_time", q.Ident)
	assert.Equal(t, uint32(49648), q.Hash)
	assert.Equal(t, 4, q.ValLen)
	assert.Equal(t, "py/modtime.c", q.Source)
}

func TestNewRecordLengthIsBytesNotRunes(t *testing.T) {
	d := loadData(t)

	q, err := New(BytesInTwo, d, "café", types.PoolUnsorted, "test")
	require.NoError(t, err)

	assert.Equal(t, 5, q.ValLen)
}

func TestNewRecordPropagatesEncodingError(t *testing.T) {
	d := loadData(t)

	_, err := New(BytesInTwo, d, "café\x01", types.PoolUnsorted, "test")
	require.Error(t, err)
	assert.True(t, symerrors.IsType(err, symerrors.ErrorTypeEncoding))
}
