// Package data holds the built-in inputs to qstr extraction: the identifier
// translation table and the static and unsorted qstr lists.
//
// The defaults are embedded in the binary and match the consuming runtime's
// expectations; a project can override them with its own YAML files via the
// data_dir config setting. The loaded Data is immutable for the run.
package data

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	symerrors "github.com/conneroisu/symgen/internal/errors"
)

//go:embed defaults/translations.yml defaults/static_qstrs.yml defaults/unsorted_qstrs.yml
var defaults embed.FS

const (
	translationsFile  = "translations.yml"
	staticQstrsFile   = "static_qstrs.yml"
	unsortedQstrsFile = "unsorted_qstrs.yml"
)

// Data is the loaded built-in configuration. All fields are read-only after
// Load returns.
type Data struct {
	// IdentTranslations maps a character that is not valid in a C
	// identifier to the name substituted for it when building a qstr
	// identifier.
	IdentTranslations map[rune]string
	// StaticQstrs is the ordered list of qstrs the runtime requires at
	// fixed pool indices.
	StaticQstrs []string
	// UnsortedQstrs is the ordered list of qstrs seeded into the unsorted
	// pool ahead of any scan.
	UnsortedQstrs []string
}

// Load returns the embedded default data set.
func Load() (*Data, error) {
	read := func(name string) ([]byte, error) {
		return defaults.ReadFile("defaults/" + name)
	}
	return load(read)
}

// LoadFromDir loads the three data files from dir instead of the embedded
// defaults. All three files must be present.
func LoadFromDir(dir string) (*Data, error) {
	read := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
	return load(read)
}

func load(read func(name string) ([]byte, error)) (*Data, error) {
	raw, err := read(translationsFile)
	if err != nil {
		return nil, symerrors.NewConfigError("ERR_DATA_READ",
			fmt.Sprintf("can't read %s", translationsFile), err)
	}
	translations, err := parseTranslations(raw)
	if err != nil {
		return nil, err
	}

	staticQstrs, err := parseList(read, staticQstrsFile)
	if err != nil {
		return nil, err
	}

	unsortedQstrs, err := parseList(read, unsortedQstrsFile)
	if err != nil {
		return nil, err
	}

	return &Data{
		IdentTranslations: translations,
		StaticQstrs:       staticQstrs,
		UnsortedQstrs:     unsortedQstrs,
	}, nil
}

// parseTranslations decodes the translation table and rejects keys that are
// not exactly one character: a multi-character key would silently never
// match during sanitization.
func parseTranslations(raw []byte) (map[rune]string, error) {
	var byString map[string]string
	if err := yaml.Unmarshal(raw, &byString); err != nil {
		return nil, symerrors.NewConfigError("ERR_DATA_PARSE",
			fmt.Sprintf("can't parse %s", translationsFile), err)
	}

	byRune := make(map[rune]string, len(byString))
	for key, replacement := range byString {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			return nil, symerrors.NewConfigError("ERR_DATA_PARSE",
				fmt.Sprintf("translation key %q is not a single character", key), nil)
		}
		byRune[r] = replacement
	}

	return byRune, nil
}

func parseList(read func(name string) ([]byte, error), name string) ([]string, error) {
	raw, err := read(name)
	if err != nil {
		return nil, symerrors.NewConfigError("ERR_DATA_READ",
			fmt.Sprintf("can't read %s", name), err)
	}

	var list []string
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, symerrors.NewConfigError("ERR_DATA_PARSE",
			fmt.Sprintf("can't parse %s", name), err)
	}

	return list, nil
}
