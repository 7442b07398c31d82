package sitewise

// Bulk-import document shapes for the SiteWise asset hierarchy service.
// Field names follow the bulk-import JSON schema.

// DataType is the SiteWise data type of an asset model property.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeInteger DataType = "INTEGER"
	DataTypeDouble  DataType = "DOUBLE"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeStruct  DataType = "STRUCT"
)

// Bulk is the aggregate root of a bulk-import document. Appending is the only
// supported mutation.
type Bulk struct {
	AssetModels []*AssetModel `json:"assetModels"`
	Assets      []*Asset      `json:"assets"`
}

// NewBulk returns an empty document.
func NewBulk() *Bulk {
	return &Bulk{AssetModels: []*AssetModel{}, Assets: []*Asset{}}
}

// AddAssetModel appends m to the document.
func (b *Bulk) AddAssetModel(m *AssetModel) {
	b.AssetModels = append(b.AssetModels, m)
}

// AddAsset appends a to the document.
func (b *Bulk) AddAsset(a *Asset) {
	b.Assets = append(b.Assets, a)
}

// AssetModel describes one asset type.
type AssetModel struct {
	AssetModelName        string                 `json:"assetModelName"`
	AssetModelExternalID  string                 `json:"assetModelExternalId"`
	AssetModelProperties  []*AssetModelProperty  `json:"assetModelProperties"`
	AssetModelHierarchies []*AssetModelHierarchy `json:"assetModelHierarchies"`
}

// NewAssetModel returns a model with no properties or hierarchies.
func NewAssetModel(name, externalID string) *AssetModel {
	return &AssetModel{
		AssetModelName:        name,
		AssetModelExternalID:  externalID,
		AssetModelProperties:  []*AssetModelProperty{},
		AssetModelHierarchies: []*AssetModelHierarchy{},
	}
}

// AssetModelProperty is one measurement declared by a model.
type AssetModelProperty struct {
	Name       string       `json:"name"`
	ExternalID string       `json:"externalId"`
	DataType   DataType     `json:"dataType"`
	Type       PropertyType `json:"type"`
}

// PropertyType selects the kind of property. Only measurements are generated.
type PropertyType struct {
	Measurement *Measurement `json:"measurement,omitempty"`
}

// Measurement is a raw property value streamed from equipment.
type Measurement struct {
	ProcessingConfig ProcessingConfig `json:"processingConfig"`
}

// ProcessingConfig controls how measurement values are processed.
type ProcessingConfig struct {
	ForwardingConfig ForwardingConfig `json:"forwardingConfig"`
}

// ForwardingConfig enables or disables forwarding to cold storage.
type ForwardingConfig struct {
	State string `json:"state"`
}

// MeasurementProperty returns a measurement property with forwarding disabled.
func MeasurementProperty(name, externalID string, dt DataType) *AssetModelProperty {
	return &AssetModelProperty{
		Name:       name,
		ExternalID: externalID,
		DataType:   dt,
		Type: PropertyType{Measurement: &Measurement{
			ProcessingConfig: ProcessingConfig{ForwardingConfig: ForwardingConfig{State: "DISABLED"}},
		}},
	}
}

// AssetModelHierarchy is an edge from a model to a child model.
type AssetModelHierarchy struct {
	Name                      string `json:"name"`
	ExternalID                string `json:"externalId"`
	ChildAssetModelExternalID string `json:"childAssetModelExternalId"`
}

// Asset is an instance of an asset model.
type Asset struct {
	AssetName            string            `json:"assetName"`
	AssetExternalID      string            `json:"assetExternalId"`
	AssetModelExternalID string            `json:"assetModelExternalId"`
	AssetProperties      []*AssetProperty  `json:"assetProperties"`
	AssetHierarchies     []*AssetHierarchy `json:"assetHierarchies"`
}

// NewAsset returns an asset of model m with no properties or hierarchies.
func NewAsset(name, externalID string, m *AssetModel) *Asset {
	return &Asset{
		AssetName:            name,
		AssetExternalID:      externalID,
		AssetModelExternalID: m.AssetModelExternalID,
		AssetProperties:      []*AssetProperty{},
		AssetHierarchies:     []*AssetHierarchy{},
	}
}

// AssetProperty binds a model property to a data stream alias.
type AssetProperty struct {
	ExternalID string `json:"externalId"`
	Alias      string `json:"alias"`
}

// AssetHierarchy is an edge from an asset to a child asset. ExternalID names
// the model hierarchy the edge instantiates.
type AssetHierarchy struct {
	ExternalID           string `json:"externalId"`
	ChildAssetExternalID string `json:"childAssetExternalId"`
}
