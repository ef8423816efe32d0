package symbols

import (
	"regexp"

	"github.com/conneroisu/symgen/internal/data"
	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/types"
)

// qstrPattern matches a qstr reference: the namespace prefix immediately
// followed by one or more identifier characters. The pattern is part of the
// interop contract with the runtime's own qstr machinery and must not drift.
const qstrPattern = `MP_QSTR_([_a-zA-Z0-9]+)`

// ExtractedQstrs is the result of a finished extraction: the recomputed
// static pool and everything that accumulated in the unsorted pool.
type ExtractedQstrs struct {
	StaticQstrs   []types.QStr
	UnsortedQstrs []types.QStr
}

// Extractor discovers qstr references line by line, deduplicating by
// identifier with first occurrence winning. It is not safe for concurrent
// use: callers that preprocess files in parallel must still feed lines in a
// fixed order so the discovery order stays reproducible.
type Extractor struct {
	bytesInHash BytesIn
	data        *data.Data
	re          *regexp.Regexp
	idents      map[string]struct{}
	unsorted    []types.QStr
}

// NewExtractor seeds the seen-identifier set with every built-in static and
// unsorted qstr, and the unsorted pool with the built-in unsorted list, so a
// scanned reference to a built-in never produces a duplicate record.
func NewExtractor(bytesInHash BytesIn, d *data.Data) (*Extractor, error) {
	re, err := regexp.Compile(qstrPattern)
	if err != nil {
		return nil, symerrors.NewPatternError(qstrPattern, err)
	}

	idents := make(map[string]struct{}, len(d.StaticQstrs)+len(d.UnsortedQstrs))
	for _, val := range d.StaticQstrs {
		q, err := New(bytesInHash, d, val, types.PoolStatic, SourceBuiltinStatic)
		if err != nil {
			return nil, err
		}
		idents[q.Ident] = struct{}{}
	}

	unsorted := make([]types.QStr, 0, len(d.UnsortedQstrs))
	for _, val := range d.UnsortedQstrs {
		q, err := New(bytesInHash, d, val, types.PoolStatic, SourceBuiltinUnsorted)
		if err != nil {
			return nil, err
		}
		idents[q.Ident] = struct{}{}
		unsorted = append(unsorted, q)
	}

	return &Extractor{
		bytesInHash: bytesInHash,
		data:        d,
		re:          re,
		idents:      idents,
		unsorted:    unsorted,
	}, nil
}

// ProcessLine scans one line of preprocessed source for qstr references.
// Each new identifier is appended to the unsorted pool in first-seen order;
// repeats are dropped.
func (e *Extractor) ProcessLine(source, line string) error {
	for _, match := range e.re.FindAllStringSubmatch(line, -1) {
		q, err := New(e.bytesInHash, e.data, match[1], types.PoolUnsorted, source)
		if err != nil {
			return err
		}
		if _, seen := e.idents[q.Ident]; !seen {
			e.idents[q.Ident] = struct{}{}
			e.unsorted = append(e.unsorted, q)
		}
	}

	return nil
}

// Finish consumes the extractor and returns both pools. The static pool is
// recomputed from the built-in list every time, independent of what the scan
// saw; the unsorted pool is returned in discovery order. The two pools are
// not deduplicated against each other.
func (e *Extractor) Finish() (ExtractedQstrs, error) {
	staticQstrs := make([]types.QStr, 0, len(e.data.StaticQstrs))
	for _, val := range e.data.StaticQstrs {
		q, err := New(e.bytesInHash, e.data, val, types.PoolStatic, SourceBuiltinStatic)
		if err != nil {
			return ExtractedQstrs{}, err
		}
		staticQstrs = append(staticQstrs, q)
	}

	return ExtractedQstrs{
		StaticQstrs:   staticQstrs,
		UnsortedQstrs: e.unsorted,
	}, nil
}
