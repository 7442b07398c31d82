// Package sfc generates Shop Floor Connectivity (SFC) configurations from the
// canonical device model: one source per PLC with an S7 channel per tag, a
// controller binding per PLC and a SiteWise target mapping.
package sfc

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/pkg/models"
)

// Output file names. The top-level configuration references the first two
// through @file: includes.
const (
	SourcesFile        = "include_generated_sources.json"
	SiteWiseTargetFile = "include_generated_swtarget.json"
	ConfigFile         = "sfc_config_generated.json"
)

// Generation defaults.
const (
	DefaultProtocolAdapter = "S7FleetPLCSim"
	DefaultControllerType  = "S7-1500"
	DefaultAliasPrefix     = "/some/datastream"
	DefaultGreengrassPath  = "/greengrass/v2"

	iotClientName = "AwsIotClient"
)

// CredentialProvider selects how the SiteWise target obtains AWS credentials.
type CredentialProvider string

const (
	// CredentialsIoTCert exchanges the device certificate for credentials
	// through the IoT credential provider.
	CredentialsIoTCert CredentialProvider = "AWS_IOT_CERT"
	// CredentialsEnvSession uses the default credential chain of the runtime.
	CredentialsEnvSession CredentialProvider = "ENV_SESSION_CREDENTIALS"
)

// ParseCredentialProvider parses a provider name case-insensitively.
func ParseCredentialProvider(s string) (CredentialProvider, error) {
	switch CredentialProvider(strings.ToUpper(strings.TrimSpace(s))) {
	case CredentialsIoTCert:
		return CredentialsIoTCert, nil
	case CredentialsEnvSession, "":
		return CredentialsEnvSession, nil
	}
	return "", fmt.Errorf("unknown credential provider %q: must be %s or %s",
		s, CredentialsIoTCert, CredentialsEnvSession)
}

// CertParams are the AwsIotClient template parameters used with CredentialsIoTCert.
type CertParams struct {
	Endpoint        string `mapstructure:"credential_endpoint"`
	RoleAlias       string `mapstructure:"role_alias"`
	ThingName       string `mapstructure:"thing_name"`
	CertificateFile string `mapstructure:"cert_file"`
	PrivateKeyFile  string `mapstructure:"private_key_file"`
	RootCAFile      string `mapstructure:"root_ca_file"`
	GreengrassPath  string `mapstructure:"greengrass_path"`
}

// missing returns the template parameter names that are empty.
func (c CertParams) missing() []string {
	var out []string
	for _, p := range []struct{ name, value string }{
		{"endpoint", c.Endpoint},
		{"rolealias", c.RoleAlias},
		{"thingname", c.ThingName},
		{"certificatefilepath", c.CertificateFile},
		{"keyfilepath", c.PrivateKeyFile},
		{"rootcafilepath", c.RootCAFile},
		{"greengrasspath", c.GreengrassPath},
	} {
		if p.value == "" {
			out = append(out, p.name)
		}
	}
	return out
}

// Options control generation.
type Options struct {
	Region             string
	CredentialProvider CredentialProvider
	Cert               CertParams
	ProtocolAdapter    string
	ControllerType     string
	AliasPrefix        string
}

func (o Options) withDefaults() Options {
	if o.ProtocolAdapter == "" {
		o.ProtocolAdapter = DefaultProtocolAdapter
	}
	if o.ControllerType == "" {
		o.ControllerType = DefaultControllerType
	}
	if o.AliasPrefix == "" {
		o.AliasPrefix = DefaultAliasPrefix
	}
	if o.CredentialProvider == "" {
		o.CredentialProvider = CredentialsEnvSession
	}
	return o
}

// Result holds the generated documents.
type Result struct {
	Config   Document          // top-level configuration, written to ConfigFile
	Sources  map[string]Source // written to SourcesFile
	Target   SiteWiseTarget    // written to SiteWiseTargetFile
	Skipped  []string          // devices without a network address
	Channels int
}

// OutputFile is a generated document and the file name it is stored under.
type OutputFile struct {
	Name    string
	Content any
}

// Files returns the generated documents in write order.
func (r *Result) Files() []OutputFile {
	return []OutputFile{
		{Name: SourcesFile, Content: r.Sources},
		{Name: SiteWiseTargetFile, Content: r.Target},
		{Name: ConfigFile, Content: r.Config.Map()},
	}
}

// Generator builds SFC configurations.
type Generator struct {
	opts   Options
	logger *zap.Logger
}

// NewGenerator returns a Generator with opts, filling unset fields with defaults.
func NewGenerator(opts Options, logger *zap.Logger) *Generator {
	return &Generator{opts: opts.withDefaults(), logger: logger.Named("sfc")}
}

// stage transforms the configuration document. Stages never modify their input.
type stage func(Document) (Document, error)

// Generate merges the devices of inv into tmpl. tmpl is not modified.
func (g *Generator) Generate(tmpl Document, inv *models.Inventory) (*Result, error) {
	if inv == nil {
		return nil, fmt.Errorf("sfc: inventory is nil")
	}

	res := &Result{Sources: make(map[string]Source)}
	var bound []*models.CanonicalDevice
	for _, name := range inv.Names() {
		d := inv.Devices[name]
		if d.PrimaryAddress() == "" {
			g.logger.Warn("device has no network address, not added to sfc config",
				zap.String("device", name),
			)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		src := g.source(d)
		res.Sources[name] = src
		res.Channels += len(src.Channels)
		bound = append(bound, d)
	}
	res.Target = g.target(res.Sources)

	stages := []stage{
		g.controllers(bound),
		g.schedule(bound),
		g.includes,
		g.credentials,
	}
	doc := tmpl
	for _, s := range stages {
		next, err := s(doc)
		if err != nil {
			return nil, err
		}
		doc = next
	}
	res.Config = doc

	g.logger.Info("sfc config generated",
		zap.Int("sources", len(res.Sources)),
		zap.Int("channels", res.Channels),
		zap.Int("skipped", len(res.Skipped)),
		zap.String("credential_provider", string(g.opts.CredentialProvider)),
	)
	return res, nil
}

func (g *Generator) source(d *models.CanonicalDevice) Source {
	src := Source{
		AdapterController: controllerName(d.Name),
		Channels:          make(map[string]Channel),
		Description:       d.TypeName(),
		Name:              d.Name,
		ProtocolAdapter:   g.opts.ProtocolAdapter,
	}
	for _, id := range d.BlockIDs() {
		for i := range d.Blocks[id] {
			e := &d.Blocks[id][i]
			name := e.ChannelName()
			if _, dup := src.Channels[name]; dup {
				g.logger.Warn("duplicate channel name, keeping last",
					zap.String("device", d.Name),
					zap.String("channel", name),
				)
			}
			src.Channels[name] = Channel{Address: FormatAddress(e), Name: name}
		}
	}
	return src
}

// target maps every channel to a property alias, one asset per source.
func (g *Generator) target(sources map[string]Source) SiteWiseTarget {
	t := SiteWiseTarget{
		Active:     true,
		Assets:     []TargetAsset{},
		Region:     g.opts.Region,
		TargetType: "AWS-SITEWISE",
	}
	if g.opts.CredentialProvider == CredentialsIoTCert {
		t.CredentialProviderClient = iotClientName
	}
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		src := sources[name]
		asset := TargetAsset{Properties: []TargetProperty{}}
		for _, ch := range slices.Sorted(maps.Keys(src.Channels)) {
			asset.Properties = append(asset.Properties, TargetProperty{
				DataPath:      `sources."` + src.Name + `".values."` + ch + `"`,
				PropertyAlias: fmt.Sprintf("%s/%s/%s", g.opts.AliasPrefix, src.Name, ch),
			})
		}
		t.Assets = append(t.Assets, asset)
	}
	return t
}

func (g *Generator) controllers(devices []*models.CanonicalDevice) stage {
	return func(doc Document) (Document, error) {
		if _, ok := doc.Get("ProtocolAdapters", g.opts.ProtocolAdapter, "Controllers"); !ok {
			return Document{}, fmt.Errorf("%w: ProtocolAdapters.%s.Controllers", ErrTemplateSlot, g.opts.ProtocolAdapter)
		}
		sets := make([]Set, 0, len(devices))
		for _, d := range devices {
			sets = append(sets, Set{
				Path: []string{"ProtocolAdapters", g.opts.ProtocolAdapter, "Controllers", controllerName(d.Name)},
				Value: fmt.Sprintf("$(S7-Adapter-Controller-Block, ipAddress=%s, controllerType=%s)",
					d.PrimaryAddress(), g.opts.ControllerType),
			})
		}
		return doc.WithValues(sets...)
	}
}

func (g *Generator) schedule(devices []*models.CanonicalDevice) stage {
	return func(doc Document) (Document, error) {
		if _, ok := doc.Get("Schedules", "0", "Sources"); !ok {
			return Document{}, fmt.Errorf("%w: Schedules[0].Sources", ErrTemplateSlot)
		}
		sets := make([]Set, 0, len(devices))
		for _, d := range devices {
			sets = append(sets, Set{
				Path:  []string{"Schedules", "0", "Sources", d.Name},
				Value: []any{"*"},
			})
		}
		return doc.WithValues(sets...)
	}
}

func (g *Generator) includes(doc Document) (Document, error) {
	return doc.WithValues(
		Set{Path: []string{"Sources"}, Value: "@file:" + SourcesFile},
		Set{Path: []string{"Targets", "DebugTarget"}, Value: "$(DebugTarget-Block, logLevel=Info)"},
		Set{Path: []string{"Targets", "SitewiseTarget"}, Value: "@file:" + SiteWiseTargetFile},
	)
}

func (g *Generator) credentials(doc Document) (Document, error) {
	if g.opts.CredentialProvider != CredentialsIoTCert {
		return doc.Without("AwsIotCredentialProviderClients"), nil
	}

	c := g.opts.Cert
	if missing := c.missing(); len(missing) > 0 {
		g.logger.Warn("certificate parameters missing, embedding empty values",
			zap.Strings("parameters", missing),
		)
	}
	block := fmt.Sprintf("$(AwsIotClient-Block, endpoint=%s, rolealias=%s, thingname=%s, "+
		"certificatefilepath=%s, keyfilepath=%s, rootcafilepath=%s, greengrasspath=%s)",
		c.Endpoint, c.RoleAlias, c.ThingName, c.CertificateFile, c.PrivateKeyFile, c.RootCAFile, c.GreengrassPath)

	if _, ok := doc.Get("AwsIotCredentialProviderClients"); !ok {
		var err error
		if doc, err = doc.With(map[string]any{}, "AwsIotCredentialProviderClients"); err != nil {
			return Document{}, err
		}
	}
	return doc.With(block, "AwsIotCredentialProviderClients", iotClientName)
}

func controllerName(device string) string {
	return device + "_Controller"
}
