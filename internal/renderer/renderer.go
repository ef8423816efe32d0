// Package renderer writes the generated headers from an extraction result.
//
// Rendering happens in two phases mirroring the generation protocol: before
// extraction the port config header and empty placeholder headers are
// written so the preprocessor can resolve includes, and after extraction the
// placeholders are overwritten with real content. A failed render leaves no
// partially generated tree behind the caller's back: the first error aborts.
package renderer

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"text/template"

	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/logging"
	"github.com/conneroisu/symgen/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PortConfig is the configuration surface rendered into mpconfigport.h and
// mpversion.h.
type PortConfig struct {
	// BytesInHash is the qstr hash width in bytes (1 or 2).
	BytesInHash int
	// BytesInLen is the stored string length width in bytes (1 or 2).
	BytesInLen int
	Version    string
	GitCommit  string
	BuildDate  string
}

// Generated header paths, relative to the include directory. The genhdr
// entries must exist (even empty) before extraction so the preprocessor can
// find them.
const (
	configHeader = "mpconfigport.h"
)

var generatedHeaders = []struct {
	path     string
	template string
}{
	{"genhdr/qstrdefs.generated.h", "qstrdefs.generated.h.tmpl"},
	{"genhdr/moduledefs.h", "moduledefs.h.tmpl"},
	{"genhdr/root_pointers.h", "root_pointers.h.tmpl"},
	{"genhdr/mpversion.h", "mpversion.h.tmpl"},
}

// Renderer renders the generated headers into an include directory.
type Renderer struct {
	includeDir string
	templates  *template.Template
	logger     logging.Logger
}

// New parses the embedded templates. The include directory is created on
// first write.
func New(includeDir string, logger logging.Logger) (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, symerrors.NewRenderError("templates", err)
	}

	return &Renderer{
		includeDir: includeDir,
		templates:  templates,
		logger:     logger.WithComponent("renderer"),
	}, nil
}

// WriteConfigHeader renders mpconfigport.h. It runs before extraction so
// the preprocessor picks up the configured qstr widths.
func (r *Renderer) WriteConfigHeader(ctx context.Context, cfg PortConfig) error {
	return r.render(ctx, configHeader, "mpconfigport.h.tmpl", cfg)
}

// WritePlaceholders creates the generated headers as empty files so source
// files including them preprocess cleanly during extraction.
func (r *Renderer) WritePlaceholders(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(r.includeDir, "genhdr"), 0o755); err != nil {
		return symerrors.NewIOError("creating genhdr directory", err)
	}

	for _, header := range generatedHeaders {
		path := filepath.Join(r.includeDir, header.path)
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return symerrors.NewIOError("creating placeholder "+header.path, err)
		}
		r.logger.Debug(ctx, "wrote placeholder", "header", header.path)
	}

	return nil
}

// RenderGenerated overwrites the placeholder headers with content rendered
// from the extraction result.
func (r *Renderer) RenderGenerated(ctx context.Context, cfg PortConfig, data *types.ExtractedData) error {
	for _, header := range generatedHeaders {
		var input interface{} = data
		if header.template == "mpversion.h.tmpl" {
			input = cfg
		}
		if err := r.render(ctx, header.path, header.template, input); err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) render(ctx context.Context, relPath, templateName string, input interface{}) error {
	path := filepath.Join(r.includeDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return symerrors.NewIOError("creating directory for "+relPath, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return symerrors.NewIOError("creating "+relPath, err)
	}
	defer f.Close()

	if err := r.templates.ExecuteTemplate(f, templateName, input); err != nil {
		return symerrors.NewRenderError(templateName, err)
	}

	r.logger.Debug(ctx, "rendered header", "header", relPath)

	return nil
}
