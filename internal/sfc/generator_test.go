package sfc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
	"github.com/HerbHall/plcbridge/internal/templates"
	"github.com/HerbHall/plcbridge/internal/testutil"
)

func defaultTemplate(t *testing.T) Document {
	t.Helper()
	doc, err := LoadTemplate(templates.Default())
	require.NoError(t, err)
	return doc
}

func TestGenerate_scenario(t *testing.T) {
	g := NewGenerator(Options{Region: "eu-central-1"}, zaptest.NewLogger(t))
	res, err := g.Generate(defaultTemplate(t), testutil.ScenarioInventory())
	require.NoError(t, err)

	require.Contains(t, res.Sources, "PLC_10.0.0.5")
	src := res.Sources["PLC_10.0.0.5"]
	assert.Equal(t, "PLC_10.0.0.5_Controller", src.AdapterController)
	assert.Equal(t, "CPU 1516-3 PN/DP", src.Description)
	assert.Equal(t, DefaultProtocolAdapter, src.ProtocolAdapter)
	assert.Equal(t, map[string]Channel{
		"1_Start": {Name: "1_Start", Address: "%DB1:0.0:BOOL"},
		"1_Count": {Name: "1_Count", Address: "%DB1:2.0:INT"},
	}, src.Channels)
	assert.Equal(t, 2, res.Channels)
	assert.Empty(t, res.Skipped)

	ctrl, ok := res.Config.Get("ProtocolAdapters", "S7FleetPLCSim", "Controllers", "PLC_10.0.0.5_Controller")
	require.True(t, ok)
	assert.Equal(t, "$(S7-Adapter-Controller-Block, ipAddress=10.0.0.5, controllerType=S7-1500)", ctrl)

	sched, ok := res.Config.Get("Schedules", "0", "Sources", "PLC_10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, []any{"*"}, sched)

	sources, _ := res.Config.Get("Sources")
	assert.Equal(t, "@file:include_generated_sources.json", sources)
	debug, _ := res.Config.Get("Targets", "DebugTarget")
	assert.Equal(t, "$(DebugTarget-Block, logLevel=Info)", debug)
	swTarget, _ := res.Config.Get("Targets", "SitewiseTarget")
	assert.Equal(t, "@file:include_generated_swtarget.json", swTarget)

	assert.Equal(t, SiteWiseTarget{
		Active:     true,
		TargetType: "AWS-SITEWISE",
		Region:     "eu-central-1",
		Assets: []TargetAsset{{Properties: []TargetProperty{
			{PropertyAlias: "/some/datastream/PLC_10.0.0.5/1_Count", DataPath: `sources."PLC_10.0.0.5".values."1_Count"`},
			{PropertyAlias: "/some/datastream/PLC_10.0.0.5/1_Start", DataPath: `sources."PLC_10.0.0.5".values."1_Start"`},
		}}},
	}, res.Target)
}

func TestGenerate_preserves_untouched_template_keys(t *testing.T) {
	tmpl := defaultTemplate(t)
	res, err := NewGenerator(Options{}, zaptest.NewLogger(t)).Generate(tmpl, testutil.ScenarioInventory())
	require.NoError(t, err)

	for _, key := range []string{"AWSVersion", "Templates", "ElementNames", "TargetTypes", "AdapterTypes", "LogLevel"} {
		want, ok := tmpl.Get(key)
		require.True(t, ok, key)
		got, ok := res.Config.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, ok := tmpl.Get("ProtocolAdapters", "S7FleetPLCSim", "Controllers", "PLC_10.0.0.5_Controller")
	assert.False(t, ok, "template must not be modified")
}

func TestGenerate_credential_modes(t *testing.T) {
	t.Run("env session drops the iot client slot", func(t *testing.T) {
		res, err := NewGenerator(Options{CredentialProvider: CredentialsEnvSession}, zaptest.NewLogger(t)).
			Generate(defaultTemplate(t), testutil.ScenarioInventory())
		require.NoError(t, err)
		_, ok := res.Config.Get("AwsIotCredentialProviderClients")
		assert.False(t, ok)
		assert.Empty(t, res.Target.CredentialProviderClient)
	})

	t.Run("iot cert embeds the client block", func(t *testing.T) {
		opts := Options{
			CredentialProvider: CredentialsIoTCert,
			Cert: CertParams{
				Endpoint:        "abc.credentials.iot.us-east-1.amazonaws.com",
				RoleAlias:       "GreengrassV2TokenExchangeRoleAlias",
				ThingName:       "GreengrassCore-1",
				CertificateFile: "/certs/device.crt",
				PrivateKeyFile:  "/certs/device.key",
				RootCAFile:      "/certs/root.pem",
				GreengrassPath:  "/greengrass/v2",
			},
		}
		res, err := NewGenerator(opts, zaptest.NewLogger(t)).Generate(defaultTemplate(t), testutil.ScenarioInventory())
		require.NoError(t, err)

		client, ok := res.Config.Get("AwsIotCredentialProviderClients", "AwsIotClient")
		require.True(t, ok)
		assert.Equal(t, "$(AwsIotClient-Block, endpoint=abc.credentials.iot.us-east-1.amazonaws.com, "+
			"rolealias=GreengrassV2TokenExchangeRoleAlias, thingname=GreengrassCore-1, "+
			"certificatefilepath=/certs/device.crt, keyfilepath=/certs/device.key, "+
			"rootcafilepath=/certs/root.pem, greengrasspath=/greengrass/v2)", client)
		assert.Equal(t, "AwsIotClient", res.Target.CredentialProviderClient)
	})

	t.Run("iot cert with missing parameters embeds empty values", func(t *testing.T) {
		res, err := NewGenerator(Options{CredentialProvider: CredentialsIoTCert}, zaptest.NewLogger(t)).
			Generate(defaultTemplate(t), testutil.ScenarioInventory())
		require.NoError(t, err)
		client, ok := res.Config.Get("AwsIotCredentialProviderClients", "AwsIotClient")
		require.True(t, ok)
		assert.Contains(t, client, "endpoint=, rolealias=,")
	})

	t.Run("iot cert recreates a missing slot", func(t *testing.T) {
		tmpl := defaultTemplate(t).Without("AwsIotCredentialProviderClients")
		res, err := NewGenerator(Options{CredentialProvider: CredentialsIoTCert}, zaptest.NewLogger(t)).
			Generate(tmpl, testutil.ScenarioInventory())
		require.NoError(t, err)
		_, ok := res.Config.Get("AwsIotCredentialProviderClients", "AwsIotClient")
		assert.True(t, ok)
	})
}

func TestParseCredentialProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    CredentialProvider
		wantErr bool
	}{
		{"AWS_IOT_CERT", CredentialsIoTCert, false},
		{"aws_iot_cert", CredentialsIoTCert, false},
		{"ENV_SESSION_CREDENTIALS", CredentialsEnvSession, false},
		{"env_session_credentials", CredentialsEnvSession, false},
		{"", CredentialsEnvSession, false},
		{"STATIC", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCredentialProvider(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerate_channels_are_per_device(t *testing.T) {
	inv := testutil.NewInventory(
		testutil.NewDevice(testutil.WithName("PLC_A"), testutil.WithAddress("10.0.0.1"),
			testutil.WithEntries(testutil.Entry(1, "A", "Bool", 0))),
		testutil.NewDevice(testutil.WithName("PLC_B"), testutil.WithAddress("10.0.0.2"),
			testutil.WithEntries(testutil.Entry(2, "B", "Int", 8))),
	)
	res, err := NewGenerator(Options{}, zaptest.NewLogger(t)).Generate(defaultTemplate(t), inv)
	require.NoError(t, err)

	assert.Len(t, res.Sources["PLC_A"].Channels, 1)
	assert.Contains(t, res.Sources["PLC_A"].Channels, "1_A")
	assert.Len(t, res.Sources["PLC_B"].Channels, 1)
	assert.Contains(t, res.Sources["PLC_B"].Channels, "2_B")
	require.Len(t, res.Target.Assets, 2)

	ctrl, _ := res.Config.Get("ProtocolAdapters", "S7FleetPLCSim", "Controllers", "PLC_B_Controller")
	assert.Equal(t, "$(S7-Adapter-Controller-Block, ipAddress=10.0.0.2, controllerType=S7-1500)", ctrl)
}

func TestGenerate_data_path_is_not_escaped(t *testing.T) {
	inv := testutil.NewInventory(
		testutil.NewDevice(testutil.WithName(`PLC"1`), testutil.WithAddress("10.0.0.1"),
			testutil.WithEntries(testutil.Entry(1, `a\b`, "Bool", 0))),
	)
	res, err := NewGenerator(Options{}, zaptest.NewLogger(t)).Generate(defaultTemplate(t), inv)
	require.NoError(t, err)

	require.Len(t, res.Target.Assets, 1)
	require.Len(t, res.Target.Assets[0].Properties, 1)
	assert.Equal(t, `sources."PLC"1".values."1_a\b"`, res.Target.Assets[0].Properties[0].DataPath)
}

func TestGenerate_skips_devices_without_address(t *testing.T) {
	inv := testutil.NewInventory(
		testutil.ScenarioInventory().Devices["PLC_10.0.0.5"],
		testutil.NewDevice(testutil.WithName("PLC_Offline"), testutil.WithAddress("")),
	)
	res, err := NewGenerator(Options{}, zaptest.NewLogger(t)).Generate(defaultTemplate(t), inv)
	require.NoError(t, err)

	assert.Equal(t, []string{"PLC_Offline"}, res.Skipped)
	assert.NotContains(t, res.Sources, "PLC_Offline")
	_, ok := res.Config.Get("Schedules", "0", "Sources", "PLC_Offline")
	assert.False(t, ok)
}

func TestGenerate_missing_template_slots(t *testing.T) {
	tests := []struct {
		name string
		tmpl func(Document) Document
	}{
		{"protocol adapter", func(d Document) Document { return d.Without("ProtocolAdapters", "S7FleetPLCSim") }},
		{"schedules", func(d Document) Document { return d.Without("Schedules") }},
		{"targets", func(d Document) Document { return d.Without("Targets") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerator(Options{}, zaptest.NewLogger(t)).
				Generate(tc.tmpl(defaultTemplate(t)), testutil.ScenarioInventory())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTemplateSlot))
		})
	}

	_, err := NewGenerator(Options{ProtocolAdapter: "Other"}, zaptest.NewLogger(t)).
		Generate(defaultTemplate(t), testutil.ScenarioInventory())
	assert.True(t, errors.Is(err, ErrTemplateSlot))
}

func TestGenerate_deterministic(t *testing.T) {
	render := func() [][]byte {
		inv := testutil.NewInventory(
			testutil.NewDevice(testutil.WithName("PLC_B"), testutil.WithAddress("10.0.0.2"),
				testutil.WithEntries(testutil.Entry(4, "Z", "Real", 64), testutil.Entry(1, "Y", "Bool", 3))),
			testutil.NewDevice(testutil.WithName("PLC_A"), testutil.WithAddress("10.0.0.1"),
				testutil.WithEntries(testutil.Entry(2, "X", "Int", 16))),
		)
		res, err := NewGenerator(Options{Region: "us-east-1"}, zaptest.NewLogger(t)).Generate(defaultTemplate(t), inv)
		require.NoError(t, err)

		var out [][]byte
		for _, f := range res.Files() {
			data, err := jsondoc.Marshal(f.Content, jsondoc.IndentSFC)
			require.NoError(t, err)
			out = append(out, data)
		}
		return out
	}

	first, second := render(), render()
	require.Len(t, first, 3)
	for i := range first {
		assert.True(t, bytes.Equal(first[i], second[i]), "file %d differs", i)
	}
}

func TestGenerate_nil_inventory(t *testing.T) {
	_, err := NewGenerator(Options{}, zaptest.NewLogger(t)).Generate(defaultTemplate(t), nil)
	assert.Error(t, err)
}
