// Package packager writes a generated SFC configuration to its output
// directory and bundles it for installation: the configuration documents, the
// static templates, a zip archive of every JSON file and installer scripts.
package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
	"github.com/HerbHall/plcbridge/internal/sfc"
	"github.com/HerbHall/plcbridge/internal/templates"
)

// Output file names.
const (
	ZipFile       = "sfc-conf.zip"
	InstallScript = "sfc-standalone-install.sh"
	InstallBatch  = "sfc-standalone-install.bat"
	RunnerBatch   = "sfc-standalone-runner.bat"
)

// Release download defaults.
const (
	DefaultArtifactBaseURL = "https://github.com/aws-samples/shopfloor-connectivity/releases/download"
	DefaultSFCVersion      = "1.5.4"
)

// Options configure a Packager.
type Options struct {
	OutputDir       string
	Templates       fs.FS // nil selects the compiled-in templates
	SFCVersion      string
	ArtifactBaseURL string
}

// Package describes the files written by one Write call.
type Package struct {
	Dir       string
	Written   []string // generated documents and copied templates
	Archived  []string // zip entries
	ZipPath   string
	ZipSHA256 string
	Modules   []string
	Scripts   []Script
}

// Installer returns the text of the shell installer.
func (p *Package) Installer() string {
	for _, s := range p.Scripts {
		if s.Name == InstallScript {
			return s.Text
		}
	}
	return ""
}

// Instructions returns the operator commands to install and run SFC from the package.
func (p *Package) Instructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "To install SFC standalone run:\n\n")
	fmt.Fprintf(&b, "  [LINUX]   cd %s && ./%s && cd -\n", p.Dir, InstallScript)
	fmt.Fprintf(&b, "  [WINDOWS] execute %s\n\n", InstallBatch)
	fmt.Fprintf(&b, "To run SFC standalone on that host:\n\n")
	fmt.Fprintf(&b, "  [LINUX]   cd %s && export SFC_DEPLOYMENT_DIR=$(pwd) && ./sfc-main/bin/sfc-main -config %s\n",
		p.Dir, sfc.ConfigFile)
	fmt.Fprintf(&b, "  [WINDOWS] execute %s\n", RunnerBatch)
	return b.String()
}

// Packager writes SFC output directories.
type Packager struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Packager, filling unset options with defaults.
func New(opts Options, logger *zap.Logger) *Packager {
	if opts.Templates == nil {
		opts.Templates = templates.Default()
	}
	if opts.SFCVersion == "" {
		opts.SFCVersion = DefaultSFCVersion
	}
	if opts.ArtifactBaseURL == "" {
		opts.ArtifactBaseURL = DefaultArtifactBaseURL
	}
	return &Packager{opts: opts, logger: logger.Named("packager")}
}

// Write stores files in the output directory, copies the static templates,
// archives every JSON file present in the directory and renders the scripts.
func (p *Packager) Write(files []sfc.OutputFile) (*Package, error) {
	dir := p.opts.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	pkg := &Package{Dir: dir, ZipPath: filepath.Join(dir, ZipFile)}

	for _, f := range files {
		if err := jsondoc.WriteFile(filepath.Join(dir, f.Name), f.Content, jsondoc.IndentSFC); err != nil {
			return nil, err
		}
		pkg.Written = append(pkg.Written, f.Name)
	}

	copied, err := p.copyTemplates(dir)
	if err != nil {
		return nil, err
	}
	pkg.Written = append(pkg.Written, copied...)

	pkg.Archived, pkg.ZipSHA256, err = ZipJSON(dir, pkg.ZipPath)
	if err != nil {
		return nil, err
	}

	pkg.Modules, err = ModuleList(p.opts.Templates)
	if err != nil {
		return nil, err
	}
	pkg.Scripts, err = RenderScripts(p.opts.ArtifactBaseURL, p.opts.SFCVersion, pkg.Modules, sfc.ConfigFile)
	if err != nil {
		return nil, err
	}
	for _, s := range pkg.Scripts {
		if err := writeScript(filepath.Join(dir, s.Name), s); err != nil {
			return nil, err
		}
	}

	p.logger.Info("sfc package written",
		zap.String("dir", dir),
		zap.Int("archived", len(pkg.Archived)),
		zap.Strings("modules", pkg.Modules),
		zap.String("zip_sha256", pkg.ZipSHA256),
	)
	return pkg, nil
}

func (p *Packager) copyTemplates(dir string) ([]string, error) {
	names, err := templates.StaticFiles(p.opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	for _, name := range names {
		data, err := fs.ReadFile(p.opts.Templates, name)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("copying template %s: %w", name, err)
		}
	}
	return names, nil
}

func writeScript(path string, s Script) error {
	if err := os.WriteFile(path, []byte(s.Text), s.Mode); err != nil {
		return fmt.Errorf("writing %s: %w", s.Name, err)
	}
	// WriteFile applies the umask; installers must be executable regardless.
	if err := os.Chmod(path, s.Mode); err != nil {
		return fmt.Errorf("chmod %s: %w", s.Name, err)
	}
	return nil
}
