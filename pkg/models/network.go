package models

// EthernetInterface holds the attributes of one ethernet configuration below
// a PROFINET interface (e.g. "E1"), as exported by the engineering tool.
type EthernetInterface struct {
	Name       string            `json:"name" yaml:"name"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// NetworkAddress returns the configured IPv4 address.
func (e *EthernetInterface) NetworkAddress() string {
	return e.Attributes["NetworkAddress"]
}

// SubnetMask returns the configured subnet mask.
func (e *EthernetInterface) SubnetMask() string {
	return e.Attributes["SubnetMask"]
}

// Gateway returns the router address, or "" when the interface does not use one.
func (e *EthernetInterface) Gateway() string {
	return e.Attributes["RouterAddress"]
}
