// Package pipeline composes the export readers, the generators and the
// packager into the runs the CLI offers.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/greengrass"
	"github.com/HerbHall/plcbridge/internal/history"
	"github.com/HerbHall/plcbridge/internal/inventory"
	"github.com/HerbHall/plcbridge/internal/metrics"
	"github.com/HerbHall/plcbridge/internal/packager"
	"github.com/HerbHall/plcbridge/internal/sfc"
	"github.com/HerbHall/plcbridge/internal/sitewise"
	"github.com/HerbHall/plcbridge/internal/templates"
	"github.com/HerbHall/plcbridge/pkg/models"
)

// Commands recorded in the run history.
const (
	CommandSFC      = "sfc"
	CommandSiteWise = "sitewise"
)

// ClientFactory returns the AWS clients for region.
type ClientFactory func(ctx context.Context, region string) (greengrass.DeploymentAPI, greengrass.IdentityAPI, error)

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithRecorder stores every run in rec.
func WithRecorder(rec Recorder) Option {
	return func(p *Pipeline) { p.recorder = rec }
}

// WithClientFactory replaces the AWS SDK client construction.
func WithClientFactory(f ClientFactory) Option {
	return func(p *Pipeline) { p.clients = f }
}

// Pipeline runs generations for one configuration.
type Pipeline struct {
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Registry
	recorder Recorder
	clients  ClientFactory
	now      func() time.Time
}

// New returns a Pipeline for cfg.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
		clients: defaultClients,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func defaultClients(ctx context.Context, region string) (greengrass.DeploymentAPI, greengrass.IdentityAPI, error) {
	gg, id, err := greengrass.NewClients(ctx, region)
	if err != nil {
		return nil, nil, err
	}
	return gg, id, nil
}

// Metrics returns the registry the pipeline records into.
func (p *Pipeline) Metrics() *metrics.Registry { return p.metrics }

// SFCReport describes an SFC generation.
type SFCReport struct {
	RunID    string
	Stats    inventory.Stats
	Result   *sfc.Result
	Package  *packager.Package
	Manifest *greengrass.Manifest // nil unless Greengrass output was requested
}

// SiteWiseReport describes a SiteWise generation.
type SiteWiseReport struct {
	RunID   string
	Stats   inventory.Stats
	Path    string
	Summary sitewise.Summary
}

// SFCDir returns the SFC output directory of the project.
func (p *Pipeline) SFCDir() string {
	return filepath.Join(p.cfg.Output.Dir, "sfc", p.cfg.Project.Name)
}

// SiteWisePath returns the bulk-import document path of the project.
func (p *Pipeline) SiteWisePath() string {
	return filepath.Join(p.cfg.Output.Dir, "sitewise", p.cfg.Project.Name+".sitewise.json")
}

// Inventory builds the canonical model from the export directory.
func (p *Pipeline) Inventory() (*models.Inventory, inventory.Stats, error) {
	start := p.now()
	inv, stats, err := inventory.Build(inventory.Options{
		ExportDir:        p.cfg.Project.ExportDir,
		AutomationMLFile: p.cfg.Project.AutomationMLFile,
		BlockFileSuffix:  p.cfg.Project.BlockFileSuffix,
	}, p.logger)
	p.metrics.ObserveStage("inventory", start)
	if err != nil {
		return nil, stats, err
	}
	p.metrics.RecordInventory(stats)
	return inv, stats, nil
}

// GenerateSFC writes the SFC configuration package and, when enabled, the
// Greengrass recipe and deployment documents.
func (p *Pipeline) GenerateSFC(ctx context.Context) (*SFCReport, error) {
	report := &SFCReport{RunID: uuid.NewString()}
	run := p.startRun(report.RunID, CommandSFC, p.SFCDir())
	err := p.generateSFC(ctx, report)
	run.Devices, run.Entries, run.Skipped = report.Stats.Devices, report.Stats.Entries, report.Stats.Skipped
	if report.Package != nil {
		run.ZipSHA256 = report.Package.ZipSHA256
	}
	p.finishRun(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) generateSFC(ctx context.Context, report *SFCReport) error {
	provider, err := sfc.ParseCredentialProvider(p.cfg.AWS.CredentialProvider)
	if err != nil {
		return err
	}
	tmplFS, err := templates.Open(p.cfg.Templates.Dir)
	if err != nil {
		return err
	}

	inv, stats, err := p.Inventory()
	report.Stats = stats
	if err != nil {
		return err
	}

	start := p.now()
	tmpl, err := sfc.LoadTemplate(tmplFS)
	if err != nil {
		return err
	}
	gen := sfc.NewGenerator(sfc.Options{
		Region:             p.cfg.AWS.Region,
		CredentialProvider: provider,
		Cert:               p.cfg.IoT,
		ProtocolAdapter:    p.cfg.SFC.ProtocolAdapter,
		ControllerType:     p.cfg.SFC.ControllerType,
		AliasPrefix:        p.cfg.SFC.AliasPrefix,
	}, p.logger)
	report.Result, err = gen.Generate(tmpl, inv)
	p.metrics.ObserveStage("sfc", start)
	if err != nil {
		return err
	}
	p.metrics.DevicesSkipped.Add(float64(len(report.Result.Skipped)))

	start = p.now()
	pkg := packager.New(packager.Options{
		OutputDir:       p.SFCDir(),
		Templates:       tmplFS,
		SFCVersion:      p.cfg.SFC.Version,
		ArtifactBaseURL: p.cfg.SFC.ArtifactBaseURL,
	}, p.logger)
	report.Package, err = pkg.Write(report.Result.Files())
	p.metrics.ObserveStage("package", start)
	if err != nil {
		return err
	}
	p.metrics.DocumentsWritten.WithLabelValues("sfc").Add(float64(len(report.Package.Written)))

	if !p.cfg.Greengrass.Enabled {
		return nil
	}
	report.Manifest, err = p.greengrass(ctx, tmplFS, report.Package)
	return err
}

func (p *Pipeline) greengrass(ctx context.Context, tmplFS fs.FS, pkg *packager.Package) (*greengrass.Manifest, error) {
	start := p.now()
	defer p.metrics.ObserveStage("greengrass", start)

	deployments, identity, err := p.clients(ctx, p.cfg.AWS.Region)
	if err != nil {
		return nil, err
	}
	b := greengrass.NewBuilder(deployments, identity, greengrass.Options{
		Region:           p.cfg.AWS.Region,
		ThingArn:         p.cfg.Greengrass.ThingArn,
		ComponentVersion: p.cfg.Greengrass.ComponentVersion,
		OutputDir:        pkg.Dir,
		Templates:        tmplFS,
	}, p.logger)
	m, err := b.Build(ctx, pkg.Installer(), pkg.ZipPath)
	if err != nil {
		return nil, err
	}
	p.metrics.DocumentsWritten.WithLabelValues("greengrass").Add(2)
	return m, nil
}

// GenerateSiteWise writes the project's SiteWise bulk-import document. When
// SiteWise.AppendTo names an existing document the project is appended to
// it; the result is always written to SiteWisePath.
func (p *Pipeline) GenerateSiteWise(ctx context.Context) (*SiteWiseReport, error) {
	report := &SiteWiseReport{RunID: uuid.NewString(), Path: p.SiteWisePath()}
	run := p.startRun(report.RunID, CommandSiteWise, report.Path)
	err := p.generateSiteWise(report)
	run.Devices, run.Entries, run.Skipped = report.Stats.Devices, report.Stats.Entries, report.Stats.Skipped
	p.finishRun(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) generateSiteWise(report *SiteWiseReport) error {
	inv, stats, err := p.Inventory()
	report.Stats = stats
	if err != nil {
		return err
	}

	start := p.now()
	bulk := sitewise.NewBulk()
	if p.cfg.SiteWise.AppendTo != "" {
		bulk, err = sitewise.ReadFile(p.cfg.SiteWise.AppendTo)
		if err != nil {
			return err
		}
	}
	report.Summary, err = sitewise.NewGenerator(p.logger).AddInventory(bulk, inv, p.cfg.Project.Name, p.cfg.SiteWise.TopHierarchyAsset)
	if err != nil {
		return err
	}
	if err := sitewise.Validate(bulk); err != nil {
		return fmt.Errorf("generated bulk import is inconsistent: %w", err)
	}
	if err := sitewise.WriteFile(report.Path, bulk); err != nil {
		return err
	}
	p.metrics.ObserveStage("sitewise", start)
	p.metrics.DocumentsWritten.WithLabelValues("sitewise").Inc()

	p.logger.Info("sitewise bulk import written",
		zap.String("path", report.Path),
		zap.Int("asset_models", report.Summary.AssetModels),
		zap.Int("assets", report.Summary.Assets),
		zap.Int("properties", report.Summary.Properties),
	)
	return nil
}

func (p *Pipeline) startRun(id, command, output string) *history.Run {
	return &history.Run{
		ID:         id,
		Command:    command,
		Project:    p.cfg.Project.Name,
		ExportDir:  p.cfg.Project.ExportDir,
		OutputPath: output,
		StartedAt:  p.now(),
	}
}

// finishRun records run in metrics and history. Recording failures are
// logged and do not fail the run.
func (p *Pipeline) finishRun(ctx context.Context, run *history.Run, err error) {
	finished := p.now()
	run.Duration = finished.Sub(run.StartedAt)
	if err != nil {
		run.Error = err.Error()
	}
	p.metrics.RecordRun(run.Command, err, finished)

	if p.recorder != nil {
		if rerr := p.recorder.Record(ctx, run); rerr != nil {
			p.logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(rerr))
		}
	}
	if p.cfg.Metrics.Textfile != "" {
		if werr := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); werr != nil {
			p.logger.Warn("failed to write metrics", zap.Error(werr))
		}
	}
}
