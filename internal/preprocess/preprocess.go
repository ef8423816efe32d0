// Package preprocess expands C translation units into the line streams the
// extractors scan.
//
// The default implementation shells out to the system C compiler in
// preprocess-only mode so macro-expanded qstr references and module
// registrations become visible. A passthrough implementation reads files
// verbatim for corpora that are already expanded.
package preprocess

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	symerrors "github.com/conneroisu/symgen/internal/errors"
)

func defaultReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Unit is one expanded translation unit: a diagnostic origin label and the
// expanded text split into lines.
type Unit struct {
	// Source is the unit's path relative to the source root, used as the
	// origin label on every record discovered in it.
	Source string
	// Lines is the fully expanded text of the unit.
	Lines []string
}

// Preprocessor expands one source file into a Unit.
type Preprocessor interface {
	Expand(ctx context.Context, file string) (*Unit, error)
}

// CC preprocesses files by invoking the C compiler with -E. The NO_QSTR
// define keeps the runtime's registration macros from expanding away before
// the extractors can see them.
type CC struct {
	// Command is the compiler to invoke; defaults to "cc".
	Command string
	// IncludeDirs are passed as -I flags.
	IncludeDirs []string
	// Defines are passed as -D flags. NO_QSTR is always included.
	Defines []string
	// SourceRoot is stripped from file paths to form origin labels.
	SourceRoot string
}

// NewCC returns a CC preprocessor with the given include path and root.
func NewCC(command string, includeDirs []string, defines []string, sourceRoot string) *CC {
	if command == "" {
		command = "cc"
	}
	return &CC{
		Command:     command,
		IncludeDirs: includeDirs,
		Defines:     defines,
		SourceRoot:  sourceRoot,
	}
}

// Expand runs the compiler in preprocess-only mode and splits its output
// into lines.
func (p *CC) Expand(ctx context.Context, file string) (*Unit, error) {
	source := originLabel(p.SourceRoot, file)

	args := []string{"-E", "-w", "-DNO_QSTR"}
	for _, define := range p.Defines {
		if define == "NO_QSTR" {
			continue
		}
		args = append(args, "-D"+define)
	}
	for _, dir := range p.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, file)

	cmd := exec.CommandContext(ctx, p.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		perr := symerrors.NewPreprocessError(source, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			perr = perr.WithContext("stderr", truncate(msg, 2048))
		}
		return nil, perr
	}

	return &Unit{
		Source: source,
		Lines:  splitLines(stdout.String()),
	}, nil
}

// Passthrough reads files verbatim, without macro expansion.
type Passthrough struct {
	// SourceRoot is stripped from file paths to form origin labels.
	SourceRoot string

	// ReadFile allows tests to substitute the filesystem; defaults to
	// os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Expand reads the file and splits it into lines.
func (p *Passthrough) Expand(_ context.Context, file string) (*Unit, error) {
	read := p.ReadFile
	if read == nil {
		read = defaultReadFile
	}

	source := originLabel(p.SourceRoot, file)
	raw, err := read(file)
	if err != nil {
		return nil, symerrors.NewPreprocessError(source, err)
	}

	return &Unit{
		Source: source,
		Lines:  splitLines(string(raw)),
	}, nil
}

// originLabel derives the diagnostic label for a file: its path relative to
// root when it is under root, the path unchanged otherwise.
func originLabel(root, file string) string {
	if root == "" {
		return file
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}

// splitLines splits expanded text into lines, tolerating CRLF output from
// cross compilers and dropping the trailing empty line a final newline
// produces.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
