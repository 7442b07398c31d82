package testutil

import (
	"github.com/HerbHall/plcbridge/pkg/models"
)

// NewDevice returns a CanonicalDevice with sensible defaults, suitable for
// test fixtures: a CPU 1516 at 10.0.0.5 with no tag entries.
// Override individual fields with options.
func NewDevice(opts ...func(*models.CanonicalDevice)) *models.CanonicalDevice {
	d := models.NewCanonicalDevice(models.Device{
		Name: "PLC_10.0.0.5",
		Attributes: map[string]string{
			"TypeName":        "CPU 1516-3 PN/DP",
			"OrderNumber":     "6ES7 516-3AN02-0AB0",
			"FirmwareVersion": "V3.0",
		},
		Interfaces: []models.EthernetInterface{
			{Name: "E1", Attributes: map[string]string{
				"NetworkAddress": "10.0.0.5",
				"SubnetMask":     "255.255.255.0",
			}},
		},
	})
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithName sets the device name.
func WithName(name string) func(*models.CanonicalDevice) {
	return func(d *models.CanonicalDevice) { d.Name = name }
}

// WithAddress replaces the interfaces with one carrying addr. An empty addr
// leaves the device without interfaces.
func WithAddress(addr string) func(*models.CanonicalDevice) {
	return func(d *models.CanonicalDevice) {
		if addr == "" {
			d.Interfaces = []models.EthernetInterface{}
			return
		}
		d.Interfaces = []models.EthernetInterface{
			{Name: "E1", Attributes: map[string]string{"NetworkAddress": addr}},
		}
	}
}

// WithTypeName sets the TypeName attribute.
func WithTypeName(name string) func(*models.CanonicalDevice) {
	return func(d *models.CanonicalDevice) { d.Attributes["TypeName"] = name }
}

// WithEntries adds tag entries to their blocks.
func WithEntries(entries ...models.TagEntry) func(*models.CanonicalDevice) {
	return func(d *models.CanonicalDevice) {
		for _, e := range entries {
			d.AddEntry(e)
		}
	}
}

// Entry returns a tag entry in block at the given bit offset.
func Entry(block int, name, datatype string, offset uint64) models.TagEntry {
	return models.TagEntry{
		BlockID:  block,
		Name:     name,
		Datatype: datatype,
		Offset:   offset,
	}
}

// NewInventory returns an inventory holding devices.
func NewInventory(devices ...*models.CanonicalDevice) *models.Inventory {
	inv := models.NewInventory()
	for _, d := range devices {
		inv.Add(d)
	}
	return inv
}

// ScenarioInventory returns the reference inventory: PLC_10.0.0.5 with block 1
// holding Start (BOOL at bit 0) and Count (INT at bit 16).
func ScenarioInventory() *models.Inventory {
	return NewInventory(NewDevice(WithEntries(
		Entry(1, "Start", "BOOL", 0),
		Entry(1, "Count", "INT", 16),
	)))
}
