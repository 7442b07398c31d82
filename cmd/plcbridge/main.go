// Command plcbridge turns PLC engineering-project exports into Shop Floor
// Connectivity configurations and SiteWise bulk-import documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/config"
	"github.com/HerbHall/plcbridge/internal/greengrass"
	"github.com/HerbHall/plcbridge/internal/history"
	"github.com/HerbHall/plcbridge/internal/pipeline"
	"github.com/HerbHall/plcbridge/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		switch {
		case errors.Is(err, greengrass.ErrNoCredentials):
			fmt.Fprintln(os.Stderr, "configure AWS credentials (environment, shared config or instance role) and retry")
		case errors.Is(err, greengrass.ErrAccessDenied):
			fmt.Fprintln(os.Stderr, "check that --thing-arn names an existing thing and that the credentials may list its deployments")
		}
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	v          *viper.Viper
	cfg        pipeline.Config
	logger     *zap.Logger
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"export-dir":       "project.export_dir",
	"output-dir":       "output.dir",
	"project":          "project.name",
	"templates-dir":    "templates.dir",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"history-db":       "history.path",
	"metrics-textfile": "metrics.textfile",

	"region":                      "aws.region",
	"credential-provider":         "aws.credential_provider",
	"sfc-version":                 "sfc.version",
	"create-greengrass-installer": "greengrass.enabled",
	"thing-arn":                   "greengrass.thing_arn",
	"greengrass-comp-version":     "greengrass.component_version",
	"iot-credential-endpoint":     "iot.credential_endpoint",
	"role-alias":                  "iot.role_alias",
	"thing-name":                  "iot.thing_name",
	"cert-file":                   "iot.cert_file",
	"private-key-file":            "iot.private_key_file",
	"root-ca-file":                "iot.root_ca_file",
	"greengrass-path":             "iot.greengrass_path",

	"top-hierarchy-asset": "sitewise.top_hierarchy_asset",
	"append-to":           "sitewise.append_to",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "plcbridge",
		Short:         "Generate SFC and SiteWise configuration from PLC project exports",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default plcbridge.yaml in ., ./configs or /etc/plcbridge)")
	pf.String("export-dir", "", "directory holding the project export")
	pf.String("output-dir", "", "directory generated files are written below")
	pf.String("project", "", "project name used in output paths and external ids")
	pf.String("templates-dir", "", "directory overriding the built-in templates")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("history-db", "", "run history database (SQLite), disabled when empty")
	pf.String("metrics-textfile", "", "write run metrics to this Prometheus textfile")

	root.AddCommand(
		newSFCCmd(a),
		newSiteWiseCmd(a),
		newInspectCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads configuration, applies the flags that were set and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	v, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := pipeline.LoadConfig(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return err
	}
	if f := v.ConfigFileUsed(); f != "" {
		logger.Debug("configuration loaded", zap.String("source", f))
	}
	a.v, a.cfg, a.logger = v, cfg, logger
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// pipeline returns a Pipeline for the loaded configuration, recording into
// the history database when one is configured. The returned func closes it.
func (a *app) pipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	var opts []pipeline.Option
	closeFn := func() {}
	if a.cfg.History.Path != "" {
		store, err := a.openHistory(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithRecorder(store))
		closeFn = func() { store.Close() }
	}
	return pipeline.New(a.cfg, a.logger, opts...), closeFn, nil
}

func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	store, err := history.Open(ctx, a.cfg.History.Path)
	if err != nil {
		return nil, err
	}
	if err := store.CheckVersion(ctx, version.Short()); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
