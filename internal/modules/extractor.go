// Package modules extracts module registration declarations from
// preprocessed source text and classifies them by registration kind.
package modules

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/symbols"
	"github.com/conneroisu/symgen/internal/types"
)

// Registration keywords. The pattern recognizes exactly these three; adding
// a fourth keyword without extending the classification switch is a bug the
// extractor panics on rather than mislabels.
const (
	kindModule     = "MP_REGISTER_MODULE"
	kindExtensible = "MP_REGISTER_EXTENSIBLE_MODULE"
	kindDelegation = "MP_REGISTER_MODULE_DELEGATION"
)

// modulePattern matches one registration declaration. The token groups are
// non-greedy so a declaration followed by more text on the same line does
// not swallow past its own closing parenthesis.
const modulePattern = `(` + kindModule + `|` + kindExtensible + `|` + kindDelegation + `)\((.*?),\s*(.*?)\);`

// ExtractedModules is the result of a finished extraction, one list per
// registration kind, each in discovery order.
type ExtractedModules struct {
	Modules           []types.Module
	ExtensibleModules []types.Module
	ModuleDelegations []types.Module
}

// Extractor accumulates module registrations line by line. Registrations are
// not deduplicated: a module declared twice yields two records, and catching
// that is left to the renderer and the C compiler of the generated header.
type Extractor struct {
	re    *regexp.Regexp
	upper cases.Caser

	modules           []types.Module
	extensibleModules []types.Module
	moduleDelegations []types.Module
}

// NewExtractor compiles the registration pattern.
func NewExtractor() (*Extractor, error) {
	re, err := regexp.Compile(modulePattern)
	if err != nil {
		return nil, symerrors.NewPatternError(modulePattern, err)
	}

	return &Extractor{
		re:    re,
		upper: cases.Upper(language.Und),
	}, nil
}

// ProcessLine scans one line for registration declarations and appends each
// to the list matching its kind.
func (e *Extractor) ProcessLine(source, line string) error {
	for _, match := range e.re.FindAllStringSubmatch(line, -1) {
		kind, qstrIdent, symbol := match[1], match[2], match[3]

		name := strings.TrimPrefix(qstrIdent, symbols.IdentPrefix)
		module := types.Module{
			QstrIdent: qstrIdent,
			UpperName: e.upper.String(name),
			Symbol:    symbol,
			Source:    source,
		}

		switch kind {
		case kindModule:
			module.Kind = types.ModuleKindPlain
			e.modules = append(e.modules, module)
		case kindExtensible:
			module.Kind = types.ModuleKindExtensible
			e.extensibleModules = append(e.extensibleModules, module)
		case kindDelegation:
			module.Kind = types.ModuleKindDelegation
			e.moduleDelegations = append(e.moduleDelegations, module)
		default:
			panic(fmt.Sprintf("unexpected module registration kind %s", kind))
		}
	}

	return nil
}

// Finish consumes the extractor and returns the three lists in discovery
// order.
func (e *Extractor) Finish() ExtractedModules {
	return ExtractedModules{
		Modules:           e.modules,
		ExtensibleModules: e.extensibleModules,
		ModuleDelegations: e.moduleDelegations,
	}
}
