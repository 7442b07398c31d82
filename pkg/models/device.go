package models

import "sort"

// Device is a PLC discovered in the AutomationML topology export.
type Device struct {
	Name       string              `json:"name" yaml:"name"`
	Attributes map[string]string   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Interfaces []EthernetInterface `json:"interfaces" yaml:"interfaces"`
}

// Attribute returns the named device attribute, or "" when absent.
func (d *Device) Attribute(name string) string {
	return d.Attributes[name]
}

// TypeName returns the engineering type name of the device (e.g. "CPU 1516-3 PN/DP").
func (d *Device) TypeName() string {
	return d.Attribute("TypeName")
}

// PrimaryAddress returns the network address of the first interface that has one.
func (d *Device) PrimaryAddress() string {
	for i := range d.Interfaces {
		if addr := d.Interfaces[i].NetworkAddress(); addr != "" {
			return addr
		}
	}
	return ""
}

// CanonicalDevice is a device together with its data-block tag entries,
// keyed by block number.
type CanonicalDevice struct {
	Device `yaml:",inline"`
	Blocks map[int][]TagEntry `json:"blocks" yaml:"blocks"`
}

// NewCanonicalDevice wraps d with an empty block map.
func NewCanonicalDevice(d Device) *CanonicalDevice {
	return &CanonicalDevice{Device: d, Blocks: make(map[int][]TagEntry)}
}

// AddEntry appends e to the bucket of its block.
func (c *CanonicalDevice) AddEntry(e TagEntry) {
	if c.Blocks == nil {
		c.Blocks = make(map[int][]TagEntry)
	}
	c.Blocks[e.BlockID] = append(c.Blocks[e.BlockID], e)
}

// BlockIDs returns the block numbers in ascending order.
func (c *CanonicalDevice) BlockIDs() []int {
	ids := make([]int, 0, len(c.Blocks))
	for id := range c.Blocks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// EntryCount returns the number of tag entries across all blocks.
func (c *CanonicalDevice) EntryCount() int {
	n := 0
	for _, entries := range c.Blocks {
		n += len(entries)
	}
	return n
}

// Inventory is the canonical model of one export: every device by name.
type Inventory struct {
	Devices map[string]*CanonicalDevice `json:"devices" yaml:"devices"`
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{Devices: make(map[string]*CanonicalDevice)}
}

// Add stores d under its name, replacing any previous device of that name.
func (inv *Inventory) Add(d *CanonicalDevice) {
	if inv.Devices == nil {
		inv.Devices = make(map[string]*CanonicalDevice)
	}
	inv.Devices[d.Name] = d
}

// Names returns the device names in sorted order. Generators iterate through
// Names so that identical input yields identical output.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.Devices))
	for name := range inv.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntryCount returns the number of tag entries across all devices.
func (inv *Inventory) EntryCount() int {
	n := 0
	for _, d := range inv.Devices {
		n += d.EntryCount()
	}
	return n
}
