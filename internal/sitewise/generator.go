// Package sitewise builds SiteWise bulk-import documents from the canonical
// device model: one asset model and asset per device, one measurement per tag.
package sitewise

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/pkg/models"
)

// ErrNilBulk is returned when no target document is supplied.
var ErrNilBulk = errors.New("sitewise: bulk document is nil")

// MapDataType maps a PLC data type to a SiteWise data type. The comparison is
// case-insensitive; anything that is not an integer or a boolean is a STRING.
func MapDataType(datatype string) DataType {
	switch strings.ToLower(datatype) {
	case "uint", "int":
		return DataTypeInteger
	case "bool":
		return DataTypeBoolean
	}
	return DataTypeString
}

// PropertyAlias returns the data stream alias of a tag: {device}DB{block}/{name}.
func PropertyAlias(device string, e *models.TagEntry) string {
	return fmt.Sprintf("%sDB%d/%s", device, e.BlockID, e.Name)
}

// Summary counts what one AddInventory call appended.
type Summary struct {
	AssetModels int
	Assets      int
	Properties  int
}

// Generator appends devices to bulk-import documents.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator returns a Generator that logs through logger.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger.Named("sitewise")}
}

// AddInventory appends the devices of inv to bulk. When topName is set, a root
// model/asset pair is created first and every device is linked below it.
// Devices are added in name order.
func (g *Generator) AddInventory(bulk *Bulk, inv *models.Inventory, project, topName string) (Summary, error) {
	if bulk == nil {
		return Summary{}, ErrNilBulk
	}
	if inv == nil {
		return Summary{}, errors.New("sitewise: inventory is nil")
	}

	var (
		sum       Summary
		rootModel *AssetModel
		rootAsset *Asset
	)
	if topName != "" {
		rootModel = NewAssetModel(topName+"_model", fmt.Sprintf("%s_%s_model", project, topName))
		rootAsset = NewAsset(topName, fmt.Sprintf("%s_%s", project, topName), rootModel)
		bulk.AddAssetModel(rootModel)
		bulk.AddAsset(rootAsset)
		sum.AssetModels++
		sum.Assets++
	}

	for _, name := range inv.Names() {
		model, asset := g.device(inv.Devices[name], project)
		bulk.AddAssetModel(model)
		bulk.AddAsset(asset)
		sum.AssetModels++
		sum.Assets++
		sum.Properties += len(model.AssetModelProperties)

		if rootModel == nil {
			continue
		}
		hierarchyID := name + "_model_to_plant_hierarchy"
		rootModel.AssetModelHierarchies = append(rootModel.AssetModelHierarchies, &AssetModelHierarchy{
			Name:                      name + "_model_to_plant",
			ExternalID:                hierarchyID,
			ChildAssetModelExternalID: model.AssetModelExternalID,
		})
		rootAsset.AssetHierarchies = append(rootAsset.AssetHierarchies, &AssetHierarchy{
			ExternalID:           hierarchyID,
			ChildAssetExternalID: asset.AssetExternalID,
		})
	}

	g.logger.Info("devices added to bulk import",
		zap.String("project", project),
		zap.String("top_hierarchy_asset", topName),
		zap.Int("asset_models", sum.AssetModels),
		zap.Int("properties", sum.Properties),
	)
	return sum, nil
}

func (g *Generator) device(d *models.CanonicalDevice, project string) (*AssetModel, *Asset) {
	model := NewAssetModel(d.Name+"_model", fmt.Sprintf("%s_%s_model", project, d.Name))
	asset := NewAsset(d.Name, fmt.Sprintf("%s_%s", project, d.Name), model)

	for _, id := range d.BlockIDs() {
		for i := range d.Blocks[id] {
			e := &d.Blocks[id][i]
			dt := MapDataType(e.Datatype)
			if dt == DataTypeString && !strings.EqualFold(e.Datatype, "string") {
				g.logger.Debug("tag type mapped to STRING",
					zap.String("device", d.Name),
					zap.String("tag", e.ChannelName()),
					zap.String("datatype", e.Datatype),
				)
			}
			prop := MeasurementProperty(e.ChannelName(), e.ChannelName(), dt)
			model.AssetModelProperties = append(model.AssetModelProperties, prop)
			asset.AssetProperties = append(asset.AssetProperties, &AssetProperty{
				ExternalID: prop.ExternalID,
				Alias:      PropertyAlias(d.Name, e),
			})
		}
	}
	return model, asset
}
