package sitewise

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
	"github.com/HerbHall/plcbridge/internal/testutil"
)

func TestMapDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"BOOL", DataTypeBoolean},
		{"Bool", DataTypeBoolean},
		{"bool", DataTypeBoolean},
		{"Int", DataTypeInteger},
		{"INT", DataTypeInteger},
		{"UInt", DataTypeInteger},
		{"Real", DataTypeString},
		{"LReal", DataTypeString},
		{"DInt", DataTypeString},
		{"Word", DataTypeString},
		{"String", DataTypeString},
		{"", DataTypeString},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := MapDataType(tc.in); got != tc.want {
				t.Errorf("MapDataType(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestAddInventory_scenario(t *testing.T) {
	bulk := NewBulk()
	sum, err := NewGenerator(zaptest.NewLogger(t)).AddInventory(bulk, testutil.ScenarioInventory(), "CarFactory", "Plant_LAS")
	require.NoError(t, err)
	assert.Equal(t, Summary{AssetModels: 2, Assets: 2, Properties: 2}, sum)

	require.Len(t, bulk.AssetModels, 2)
	root, plc := bulk.AssetModels[0], bulk.AssetModels[1]
	assert.Equal(t, "Plant_LAS_model", root.AssetModelName)
	assert.Equal(t, "CarFactory_Plant_LAS_model", root.AssetModelExternalID)
	assert.Equal(t, "PLC_10.0.0.5_model", plc.AssetModelName)
	assert.Equal(t, "CarFactory_PLC_10.0.0.5_model", plc.AssetModelExternalID)

	require.Len(t, plc.AssetModelProperties, 2)
	assert.Equal(t, "1_Start", plc.AssetModelProperties[0].Name)
	assert.Equal(t, DataTypeBoolean, plc.AssetModelProperties[0].DataType)
	assert.Equal(t, "1_Count", plc.AssetModelProperties[1].ExternalID)
	assert.Equal(t, DataTypeInteger, plc.AssetModelProperties[1].DataType)
	assert.Equal(t, "DISABLED", plc.AssetModelProperties[0].Type.Measurement.ProcessingConfig.ForwardingConfig.State)

	require.Len(t, root.AssetModelHierarchies, 1)
	assert.Equal(t, &AssetModelHierarchy{
		Name:                      "PLC_10.0.0.5_model_to_plant",
		ExternalID:                "PLC_10.0.0.5_model_to_plant_hierarchy",
		ChildAssetModelExternalID: "CarFactory_PLC_10.0.0.5_model",
	}, root.AssetModelHierarchies[0])

	require.Len(t, bulk.Assets, 2)
	rootAsset, plcAsset := bulk.Assets[0], bulk.Assets[1]
	assert.Equal(t, "CarFactory_Plant_LAS", rootAsset.AssetExternalID)
	assert.Equal(t, []*AssetHierarchy{{
		ExternalID:           "PLC_10.0.0.5_model_to_plant_hierarchy",
		ChildAssetExternalID: "CarFactory_PLC_10.0.0.5",
	}}, rootAsset.AssetHierarchies)

	assert.Equal(t, []*AssetProperty{
		{ExternalID: "1_Start", Alias: "PLC_10.0.0.5DB1/Start"},
		{ExternalID: "1_Count", Alias: "PLC_10.0.0.5DB1/Count"},
	}, plcAsset.AssetProperties)

	assert.NoError(t, Validate(bulk))
}

func TestAddInventory_one_property_per_entry_across_blocks(t *testing.T) {
	dev := testutil.NewDevice(testutil.WithEntries(
		testutil.Entry(2, "A", "Bool", 0),
		testutil.Entry(2, "B", "Real", 32),
		testutil.Entry(5, "C", "UInt", 0),
	))
	bulk := NewBulk()
	_, err := NewGenerator(zaptest.NewLogger(t)).AddInventory(bulk, testutil.NewInventory(dev), "P", "")
	require.NoError(t, err)

	require.Len(t, bulk.Assets, 1)
	aliases := make([]string, 0, 3)
	for _, p := range bulk.Assets[0].AssetProperties {
		aliases = append(aliases, p.Alias)
	}
	assert.Equal(t, []string{"PLC_10.0.0.5DB2/A", "PLC_10.0.0.5DB2/B", "PLC_10.0.0.5DB5/C"}, aliases)
	assert.NoError(t, Validate(bulk))
}

func TestAddInventory_without_top_has_no_edges(t *testing.T) {
	inv := testutil.NewInventory(
		testutil.NewDevice(testutil.WithName("PLC_A")),
		testutil.NewDevice(testutil.WithName("PLC_B")),
	)
	bulk := NewBulk()
	sum, err := NewGenerator(zaptest.NewLogger(t)).AddInventory(bulk, inv, "P", "")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Assets)
	for _, a := range bulk.Assets {
		assert.Empty(t, a.AssetHierarchies)
	}
	assert.Equal(t, "PLC_A", bulk.Assets[0].AssetName, "devices are added in name order")
}

func TestAddInventory_appends_to_existing(t *testing.T) {
	g := NewGenerator(zaptest.NewLogger(t))
	bulk := NewBulk()
	_, err := g.AddInventory(bulk, testutil.ScenarioInventory(), "CarFactory", "Plant_LAS")
	require.NoError(t, err)

	other := testutil.NewInventory(testutil.NewDevice(testutil.WithName("PLC_Paint")))
	_, err = g.AddInventory(bulk, other, "PaintShop", "Plant_PS")
	require.NoError(t, err)

	assert.Len(t, bulk.AssetModels, 4)
	assert.Len(t, bulk.Assets, 4)
	assert.NoError(t, Validate(bulk))
}

func TestAddInventory_nil_arguments(t *testing.T) {
	g := NewGenerator(zaptest.NewLogger(t))
	_, err := g.AddInventory(nil, testutil.ScenarioInventory(), "P", "")
	assert.True(t, errors.Is(err, ErrNilBulk))

	_, err = g.AddInventory(NewBulk(), nil, "P", "")
	assert.Error(t, err)
}

func TestAddInventory_fresh_documents_are_independent(t *testing.T) {
	g := NewGenerator(zaptest.NewLogger(t))
	first, second := NewBulk(), NewBulk()
	_, err := g.AddInventory(first, testutil.ScenarioInventory(), "P", "Top")
	require.NoError(t, err)
	assert.Empty(t, second.Assets)
	assert.Empty(t, second.AssetModels)
}

func TestAddInventory_deterministic(t *testing.T) {
	render := func() []byte {
		inv := testutil.NewInventory(
			testutil.NewDevice(testutil.WithName("PLC_B"), testutil.WithEntries(testutil.Entry(1, "X", "Int", 0))),
			testutil.NewDevice(testutil.WithName("PLC_A"), testutil.WithEntries(testutil.Entry(3, "Y", "Bool", 1))),
		)
		bulk := NewBulk()
		_, err := NewGenerator(zaptest.NewLogger(t)).AddInventory(bulk, inv, "P", "Top")
		require.NoError(t, err)
		data, err := jsondoc.Marshal(bulk, jsondoc.IndentSiteWise)
		require.NoError(t, err)
		return data
	}
	assert.True(t, bytes.Equal(render(), render()))
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitewise", "CarFactory.sitewise.json")

	empty, err := ReadFile(path)
	require.NoError(t, err)
	assert.NotNil(t, empty.Assets)

	bulk := NewBulk()
	_, err = NewGenerator(zaptest.NewLogger(t)).AddInventory(bulk, testutil.ScenarioInventory(), "CarFactory", "Plant_LAS")
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, bulk))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bulk, loaded)

	assert.True(t, errors.Is(WriteFile(path, nil), ErrNilBulk))
}

func TestReadFile_normalizes_missing_lists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, jsondoc.WriteFile(path, map[string]any{
		"assetModels": []any{map[string]any{"assetModelName": "m", "assetModelExternalId": "m"}},
	}, 2))

	b, err := ReadFile(path)
	require.NoError(t, err)
	assert.NotNil(t, b.Assets)
	assert.NotNil(t, b.AssetModels[0].AssetModelProperties)
	assert.NotNil(t, b.AssetModels[0].AssetModelHierarchies)
}
