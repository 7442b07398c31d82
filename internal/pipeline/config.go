package pipeline

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/HerbHall/plcbridge/internal/greengrass"
	"github.com/HerbHall/plcbridge/internal/inventory"
	"github.com/HerbHall/plcbridge/internal/packager"
	"github.com/HerbHall/plcbridge/internal/sfc"
)

// Config is the run configuration, unmarshalled from Viper.
type Config struct {
	Project    ProjectConfig    `mapstructure:"project"`
	Output     OutputConfig     `mapstructure:"output"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
	SFC        SFCConfig        `mapstructure:"sfc"`
	AWS        AWSConfig        `mapstructure:"aws"`
	IoT        sfc.CertParams   `mapstructure:"iot"`
	Greengrass GreengrassConfig `mapstructure:"greengrass"`
	SiteWise   SiteWiseConfig   `mapstructure:"sitewise"`
	History    HistoryConfig    `mapstructure:"history"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ProjectConfig struct {
	Name             string `mapstructure:"name"`
	ExportDir        string `mapstructure:"export_dir"`
	AutomationMLFile string `mapstructure:"automationml_file"`
	BlockFileSuffix  string `mapstructure:"block_file_suffix"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// TemplatesConfig selects a template directory; empty uses the built-in set.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type SFCConfig struct {
	Version         string `mapstructure:"version"`
	ArtifactBaseURL string `mapstructure:"artifact_base_url"`
	ProtocolAdapter string `mapstructure:"protocol_adapter"`
	ControllerType  string `mapstructure:"controller_type"`
	AliasPrefix     string `mapstructure:"alias_prefix"`
}

type AWSConfig struct {
	Region             string `mapstructure:"region"`
	CredentialProvider string `mapstructure:"credential_provider"`
}

type GreengrassConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ThingArn         string `mapstructure:"thing_arn"`
	ComponentVersion string `mapstructure:"component_version"`
}

type SiteWiseConfig struct {
	TopHierarchyAsset string `mapstructure:"top_hierarchy_asset"`
	AppendTo          string `mapstructure:"append_to"`
}

// HistoryConfig locates the run ledger. An empty path disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig names the Prometheus textfile. An empty path disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Project: ProjectConfig{
			Name:             "CarFactory",
			ExportDir:        "./tia-export",
			AutomationMLFile: inventory.DefaultAutomationMLFile,
			BlockFileSuffix:  inventory.DefaultBlockFileSuffix,
		},
		Output: OutputConfig{Dir: "./output"},
		SFC: SFCConfig{
			Version:         packager.DefaultSFCVersion,
			ArtifactBaseURL: packager.DefaultArtifactBaseURL,
			ProtocolAdapter: sfc.DefaultProtocolAdapter,
			ControllerType:  sfc.DefaultControllerType,
			AliasPrefix:     sfc.DefaultAliasPrefix,
		},
		AWS: AWSConfig{
			Region:             "us-east-1",
			CredentialProvider: string(sfc.CredentialsEnvSession),
		},
		IoT: sfc.CertParams{GreengrassPath: sfc.DefaultGreengrassPath},
		Greengrass: GreengrassConfig{
			ThingArn:         greengrass.DefaultThingArn,
			ComponentVersion: greengrass.DefaultComponentVersion,
		},
		SiteWise: SiteWiseConfig{TopHierarchyAsset: "Plant_LAS"},
	}
}

// LoadConfig unmarshals v over DefaultConfig and validates the result.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values a run cannot start without.
func (c Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if c.Project.ExportDir == "" {
		return fmt.Errorf("project.export_dir is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if _, err := sfc.ParseCredentialProvider(c.AWS.CredentialProvider); err != nil {
		return err
	}
	return nil
}
