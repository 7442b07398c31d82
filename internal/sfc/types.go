package sfc

// Fields are declared in key order so generated files read the same as
// sorted-key output.

// Channel is one value read from a source.
type Channel struct {
	Address string `json:"Address"`
	Name    string `json:"Name"`
}

// Source is one PLC read through a protocol adapter controller.
type Source struct {
	AdapterController string             `json:"AdapterController"`
	Channels          map[string]Channel `json:"Channels"`
	Description       string             `json:"Description"`
	Name              string             `json:"Name"`
	ProtocolAdapter   string             `json:"ProtocolAdapter"`
}

// TargetProperty maps a source channel to a SiteWise property alias.
type TargetProperty struct {
	DataPath      string `json:"DataPath"`
	PropertyAlias string `json:"PropertyAlias"`
}

// TargetAsset groups the property mappings of one source.
type TargetAsset struct {
	Properties []TargetProperty `json:"Properties"`
}

// SiteWiseTarget is the AWS-SITEWISE target definition.
type SiteWiseTarget struct {
	Active                   bool          `json:"Active"`
	Assets                   []TargetAsset `json:"Assets"`
	CredentialProviderClient string        `json:"CredentialProviderClient,omitempty"`
	Region                   string        `json:"Region"`
	TargetType               string        `json:"TargetType"`
}
