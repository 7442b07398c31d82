// Package config loads plcbridge configuration with Viper and builds the
// zap logger from it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides: PLCBRIDGE_AWS_REGION=eu-west-1.
const EnvPrefix = "PLCBRIDGE"

// LoadConfig reads configuration from configPath, or from plcbridge.yaml in
// the working directory, ./configs or /etc/plcbridge when configPath is
// empty. A missing default file is not an error.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("plcbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/plcbridge")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("project.name", "CarFactory")
	v.SetDefault("project.export_dir", "./tia-export")
	v.SetDefault("project.automationml_file", "project_automationml.aml")
	v.SetDefault("project.block_file_suffix", "DB_SW.xml")
	v.SetDefault("output.dir", "./output")
	v.SetDefault("templates.dir", "")

	v.SetDefault("sfc.version", "1.5.4")
	v.SetDefault("sfc.artifact_base_url", "https://github.com/aws-samples/shopfloor-connectivity/releases/download")
	v.SetDefault("sfc.protocol_adapter", "S7FleetPLCSim")
	v.SetDefault("sfc.controller_type", "S7-1500")
	v.SetDefault("sfc.alias_prefix", "/some/datastream")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.credential_provider", "ENV_SESSION_CREDENTIALS")

	v.SetDefault("iot.credential_endpoint", "")
	v.SetDefault("iot.role_alias", "")
	v.SetDefault("iot.thing_name", "")
	v.SetDefault("iot.cert_file", "")
	v.SetDefault("iot.private_key_file", "")
	v.SetDefault("iot.root_ca_file", "")
	v.SetDefault("iot.greengrass_path", "/greengrass/v2")

	v.SetDefault("greengrass.enabled", false)
	v.SetDefault("greengrass.thing_arn", "arn:aws:iot:us-east-1:123456789012:thing/MyThing")
	v.SetDefault("greengrass.component_version", "1.0.1")

	v.SetDefault("sitewise.top_hierarchy_asset", "Plant_LAS")
	v.SetDefault("sitewise.append_to", "")

	v.SetDefault("history.path", "")
	v.SetDefault("metrics.textfile", "")
}
