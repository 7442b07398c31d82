// Package inventory builds the canonical device model from a project export
// directory: the AutomationML topology plus each device's data-block exports.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/automationml"
	"github.com/HerbHall/plcbridge/internal/blockexport"
	"github.com/HerbHall/plcbridge/pkg/models"
)

// Default file naming used by the engineering tool export.
const (
	DefaultAutomationMLFile = "project_automationml.aml"
	DefaultBlockFileSuffix  = "DB_SW.xml"
)

// Options locates the export on disk.
type Options struct {
	ExportDir        string
	AutomationMLFile string // relative to ExportDir
	BlockFileSuffix  string
}

func (o Options) withDefaults() Options {
	if o.AutomationMLFile == "" {
		o.AutomationMLFile = DefaultAutomationMLFile
	}
	if o.BlockFileSuffix == "" {
		o.BlockFileSuffix = DefaultBlockFileSuffix
	}
	return o
}

// Stats summarizes a build.
type Stats struct {
	Devices int
	Files   int
	Entries int
	Skipped int
}

// Build reads the export described by opts. Any parse failure aborts the
// build; no partial inventory is returned.
func Build(opts Options, logger *zap.Logger) (*models.Inventory, Stats, error) {
	opts = opts.withDefaults()
	log := logger.Named("inventory")

	amlPath := filepath.Join(opts.ExportDir, opts.AutomationMLFile)
	devices, err := automationml.ReadFile(amlPath, log)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read topology: %w", err)
	}

	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)

	inv := models.NewInventory()
	var stats Stats
	for _, name := range names {
		dev, devStats, err := buildDevice(devices[name], opts, log)
		if err != nil {
			return nil, Stats{}, err
		}
		inv.Add(dev)
		stats.Devices++
		stats.Files += devStats.Files
		stats.Entries += devStats.Entries
		stats.Skipped += devStats.Skipped
	}

	log.Info("inventory built",
		zap.Int("devices", stats.Devices),
		zap.Int("files", stats.Files),
		zap.Int("entries", stats.Entries),
		zap.Int("skipped", stats.Skipped),
	)
	return inv, stats, nil
}

func buildDevice(d models.Device, opts Options, logger *zap.Logger) (*models.CanonicalDevice, Stats, error) {
	dev := models.NewCanonicalDevice(d)
	var stats Stats

	files, err := blockFiles(filepath.Join(opts.ExportDir, d.Name), opts.BlockFileSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("no block export directory for device", zap.String("device", d.Name))
		return dev, stats, nil
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list block exports for %s: %w", d.Name, err)
	}

	for _, path := range files {
		exp, err := blockexport.ReadFile(path, logger)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read block export for %s: %w", d.Name, err)
		}
		for _, e := range exp.Entries {
			dev.AddEntry(e)
		}
		stats.Files++
		stats.Entries += len(exp.Entries)
		stats.Skipped += exp.Skipped
	}

	logger.Debug("device loaded",
		zap.String("device", d.Name),
		zap.Int("files", stats.Files),
		zap.Int("entries", stats.Entries),
	)
	return dev, stats, nil
}

// blockFiles lists the regular files in dir whose name ends with suffix, in name order.
func blockFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
