// Package symbols computes qstr records and extracts qstr references from
// preprocessed source text.
//
// A qstr record carries the hash, sanitized identifier and byte length the
// consuming runtime uses for interned-string lookup. The hash and identifier
// algorithms here must stay bit-compatible with the runtime's own qstr
// implementation; the golden test against testdata/qstrdefs.generated.h
// guards that.
package symbols

import (
	"fmt"
	"strings"

	"github.com/conneroisu/symgen/internal/data"
	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/types"
)

// IdentPrefix is the namespace prefix carried by every qstr identifier.
const IdentPrefix = "MP_QSTR_"

// Origin labels for records not discovered by scanning.
const (
	SourceBuiltinStatic   = "Built in statics"
	SourceBuiltinUnsorted = "Built in unsorted"
	SourceConfig          = "config"
)

// BytesIn selects how many bytes of a value participate in a stored field:
// one or two bytes for the hash, one or two bytes for the string length.
type BytesIn uint8

const (
	BytesInOne BytesIn = 1
	BytesInTwo BytesIn = 2
)

// Mask returns the hash mask for the width.
func (b BytesIn) Mask() uint32 {
	if b == BytesInOne {
		return 0xff
	}
	return 0xffff
}

// Valid reports whether b is one of the two supported widths.
func (b BytesIn) Valid() bool {
	return b == BytesInOne || b == BytesInTwo
}

// New computes a qstr record for val. It fails only when val needs control
// character escaping but contains non-ASCII bytes.
func New(bytesInHash BytesIn, d *data.Data, val string, pool types.Pool, source string) (types.QStr, error) {
	escaped, err := escapeString(val)
	if err != nil {
		return types.QStr{}, err
	}

	return types.QStr{
		Pool:       pool,
		Val:        val,
		EscapedVal: escaped,
		Ident:      Ident(d, val),
		Hash:       Hash([]byte(val), bytesInHash),
		ValLen:     len(val),
		Source:     source,
	}, nil
}

// Hash computes the DJB-style hash the runtime uses for qstr lookup:
// accumulate h = h*33 ^ b over the bytes with 32-bit wraparound, then mask
// to the configured width. A result of 0 is forced to 1 because the runtime
// reserves 0 to mean "hash not yet computed".
func Hash(val []byte, bytesInHash BytesIn) uint32 {
	hash := uint32(5381)
	for _, b := range val {
		hash = (hash * 33) ^ uint32(b)
	}
	hash &= bytesInHash.Mask()

	if hash == 0 {
		return 1
	}
	return hash
}

// Ident builds the sanitized C identifier for val: the MP_QSTR_ prefix, then
// each character either replaced with _<name>_ from the translation table or
// passed through unchanged. Untranslated characters are not validated; a
// character outside both the table and the C identifier alphabet flows into
// the generated header as-is.
func Ident(d *data.Data, val string) string {
	var sb strings.Builder
	sb.WriteString(IdentPrefix)
	for _, c := range val {
		if replacement, ok := d.IdentTranslations[c]; ok {
			sb.WriteString("_")
			sb.WriteString(replacement)
			sb.WriteString("_")
		} else {
			sb.WriteRune(c)
		}
	}

	return sb.String()
}

// escapeString returns val unchanged when it contains no ASCII control
// characters. Otherwise every character is rewritten as a two-digit \xNN
// escape; that rewrite only supports ASCII, so a value mixing control
// characters with non-ASCII bytes is rejected.
func escapeString(val string) (string, error) {
	if !strings.ContainsFunc(val, isASCIIControl) {
		return val, nil
	}

	for _, c := range val {
		if c > 0x7f {
			return "", symerrors.NewEncodingError(val)
		}
	}

	var sb strings.Builder
	for _, c := range val {
		fmt.Fprintf(&sb, `\x%02x`, c)
	}

	return sb.String(), nil
}

func isASCIIControl(c rune) bool {
	return c < 0x20 || c == 0x7f
}
