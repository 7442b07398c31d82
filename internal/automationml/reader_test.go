package automationml

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/plcbridge/internal/xmltree"
)

func TestReadFile_fixture(t *testing.T) {
	devices, err := ReadFile(filepath.Join("testdata", "project_automationml.aml"), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	plc, ok := devices["PLC_10.0.0.5"]
	require.True(t, ok, "expected PLC_10.0.0.5")
	assert.Equal(t, "CPU 1516-3 PN/DP", plc.TypeName())
	assert.Equal(t, map[string]string{
		"TypeName":        "CPU 1516-3 PN/DP",
		"OrderNumber":     "6ES7 516-3AN02-0AB0",
		"FirmwareVersion": "V3.0",
	}, plc.Attributes)

	// Only the first PROFINET interface is read; Port_1 is not an ethernet config.
	require.Len(t, plc.Interfaces, 1)
	eth := plc.Interfaces[0]
	assert.Equal(t, "E1", eth.Name)
	assert.Equal(t, "10.0.0.5", eth.NetworkAddress())
	assert.Equal(t, "255.255.255.0", eth.SubnetMask())
	assert.Equal(t, "10.0.0.1", eth.Gateway())
	assert.NotContains(t, eth.Attributes, "IpProtocolSelection")
	assert.NotContains(t, eth.Attributes, "Type")
	assert.Equal(t, "10.0.0.5", plc.PrimaryAddress())
}

func TestReadFile_device_without_interfaces(t *testing.T) {
	devices, err := ReadFile(filepath.Join("testdata", "project_automationml.aml"), zaptest.NewLogger(t))
	require.NoError(t, err)

	pkg, ok := devices["PLC_Packaging"]
	require.True(t, ok, "devices nested in groups should be found")
	assert.NotNil(t, pkg.Interfaces)
	assert.Empty(t, pkg.Interfaces)
	assert.Empty(t, pkg.PrimaryAddress())
}

func TestRead_concatenates_interface_groups(t *testing.T) {
	const doc = `<CAEXFile><InstanceHierarchy Name="P">
	<InternalElement Name="station">
		<Attribute Name="TypeIdentifier"><Value>System:Device.S71200</Value></Attribute>
		<InternalElement Name="Rack_0">
			<InternalElement Name="PLC_1">
				<InternalElement Name="PROFINET interface_1">
					<InternalElement Name="E1"><Attribute Name="NetworkAddress"><Value>10.1.1.1</Value></Attribute></InternalElement>
				</InternalElement>
				<InternalElement Name="PROFINET_Interface_1_X2">
					<InternalElement Name="E2"><Attribute Name="NetworkAddress"><Value>10.2.2.2</Value></Attribute></InternalElement>
					<InternalElement Name="Port_2" />
				</InternalElement>
			</InternalElement>
		</InternalElement>
	</InternalElement>
</InstanceHierarchy></CAEXFile>`

	devices, err := Read(strings.NewReader(doc), "inline.aml", zaptest.NewLogger(t))
	require.NoError(t, err)
	plc := devices["PLC_1"]
	require.Len(t, plc.Interfaces, 2)
	assert.Equal(t, "10.1.1.1", plc.Interfaces[0].NetworkAddress())
	assert.Equal(t, "10.2.2.2", plc.Interfaces[1].NetworkAddress())
}

func TestRead_device_without_item_is_skipped(t *testing.T) {
	const doc = `<CAEXFile><InstanceHierarchy Name="P">
	<InternalElement Name="station">
		<Attribute Name="TypeIdentifier"><Value>System:Device.S71500</Value></Attribute>
	</InternalElement>
</InstanceHierarchy></CAEXFile>`

	devices, err := Read(strings.NewReader(doc), "inline.aml", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestRead_depth_is_bounded(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<CAEXFile><InstanceHierarchy Name="P">`)
	for range maxDepth + 5 {
		b.WriteString(`<InternalElement Name="group">`)
	}
	for range maxDepth + 5 {
		b.WriteString(`</InternalElement>`)
	}
	b.WriteString(`</InstanceHierarchy></CAEXFile>`)

	devices, err := Read(strings.NewReader(b.String()), "deep.aml", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestRead_malformed(t *testing.T) {
	_, err := Read(strings.NewReader(`<CAEXFile><InstanceHierarchy>`), "broken.aml", zaptest.NewLogger(t))
	require.Error(t, err)

	var pe *xmltree.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken.aml", pe.Source)
}

func TestReadFile_missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.aml"), zaptest.NewLogger(t))
	assert.Error(t, err)
}
