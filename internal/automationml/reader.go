// Package automationml reads the device topology from an AutomationML (CAEX)
// project export.
package automationml

import (
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/xmltree"
	"github.com/HerbHall/plcbridge/pkg/models"
)

// DeviceTypePrefix marks InternalElements that represent devices.
const DeviceTypePrefix = "System:Device"

// maxDepth bounds the search for device nodes below an InstanceHierarchy.
const maxDepth = 32

var (
	// Framework attributes that carry no device metadata.
	excludedDeviceAttrs = []string{"PositionNumber", "BuiltIn"}
	// Interface attributes dropped in addition to the device exclusions.
	excludedEthernetAttrs = []string{"PositionNumber", "BuiltIn", "IpProtocolSelection", "Type"}

	profinetPrefixes = []string{"PROFINET interface_1", "PROFINET_Interface_1"}

	isInternalElement = xmltree.OfKind(xmltree.KindInternalElement)
	isTypeIdentifier  = xmltree.All(
		xmltree.OfKind(xmltree.KindAttribute),
		xmltree.AttrEquals("Name", "TypeIdentifier"),
	)
	isProfinetInterface = xmltree.All(
		isInternalElement,
		xmltree.AttrHasPrefix("Name", profinetPrefixes...),
	)
	isEthernetConfig = xmltree.All(
		isInternalElement,
		xmltree.AttrHasPrefix("Name", "E"),
		xmltree.Not(xmltree.AttrHasPrefix("Name", "Port")),
	)
)

// ReadFile parses the AutomationML export at path and returns every device by name.
func ReadFile(path string, logger *zap.Logger) (map[string]models.Device, error) {
	root, err := xmltree.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return fromTree(root, logger), nil
}

// Read parses an AutomationML export from r. source names the input in errors.
func Read(r io.Reader, source string, logger *zap.Logger) (map[string]models.Device, error) {
	root, err := xmltree.Parse(r, source)
	if err != nil {
		return nil, err
	}
	return fromTree(root, logger), nil
}

func fromTree(root *xmltree.Node, logger *zap.Logger) map[string]models.Device {
	devices := make(map[string]models.Device)
	for _, hierarchy := range root.Select(xmltree.OfKind(xmltree.KindInstanceHierarchy)) {
		for _, d := range findDevices(hierarchy, 0, logger) {
			if _, dup := devices[d.Name]; dup {
				logger.Warn("duplicate device name in export, keeping last",
					zap.String("device", d.Name),
				)
			}
			devices[d.Name] = d
		}
	}
	return devices
}

// findDevices searches the InternalElements below n for device nodes. A
// matched device is not searched further.
func findDevices(n *xmltree.Node, depth int, logger *zap.Logger) []models.Device {
	if depth >= maxDepth {
		logger.Warn("topology nesting exceeds search depth", zap.Int("max_depth", maxDepth))
		return nil
	}

	var found []models.Device
	for _, el := range n.Select(isInternalElement) {
		if !strings.HasPrefix(typeIdentifier(el), DeviceTypePrefix) {
			found = append(found, findDevices(el, depth+1, logger)...)
			continue
		}
		d, ok := readDevice(el)
		if !ok {
			logger.Warn("device element has no nested device item, skipping",
				zap.String("element", el.Attr("Name")),
				zap.String("type", typeIdentifier(el)),
			)
			continue
		}
		found = append(found, d)
	}
	return found
}

func typeIdentifier(el *xmltree.Node) string {
	return el.Path(isTypeIdentifier, xmltree.OfKind(xmltree.KindValue)).TrimmedText()
}

// readDevice reads the device item nested below a device element
// (device element > station > device item).
func readDevice(el *xmltree.Node) (models.Device, bool) {
	item := el.Path(isInternalElement, isInternalElement)
	if item == nil {
		return models.Device{}, false
	}

	d := models.Device{
		Name:       item.Attr("Name"),
		Attributes: readAttributes(item, excludedDeviceAttrs),
		Interfaces: []models.EthernetInterface{},
	}
	for _, pn := range item.Select(isProfinetInterface) {
		d.Interfaces = append(d.Interfaces, readInterfaces(pn)...)
	}
	return d, true
}

func readInterfaces(pn *xmltree.Node) []models.EthernetInterface {
	var out []models.EthernetInterface
	for _, eth := range pn.Select(isEthernetConfig) {
		out = append(out, models.EthernetInterface{
			Name:       eth.Attr("Name"),
			Attributes: readAttributes(eth, excludedEthernetAttrs),
		})
	}
	return out
}

// readAttributes collects the Attribute children of n as name -> trimmed value.
func readAttributes(n *xmltree.Node, exclude []string) map[string]string {
	attrs := make(map[string]string)
	for _, a := range n.Select(xmltree.OfKind(xmltree.KindAttribute)) {
		name := a.Attr("Name")
		if name == "" || slices.Contains(exclude, name) {
			continue
		}
		attrs[name] = a.First(xmltree.OfKind(xmltree.KindValue)).TrimmedText()
	}
	return attrs
}
