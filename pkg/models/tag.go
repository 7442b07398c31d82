package models

import "fmt"

// Comment is one localized comment attached to a data-block member.
type Comment struct {
	Lang string `json:"lang" yaml:"lang"`
	Text string `json:"text" yaml:"text"`
}

// TagEntry is one member of a PLC data block.
type TagEntry struct {
	BlockID    int       `json:"block_id" yaml:"block_id"`
	BlockName  string    `json:"block_name,omitempty" yaml:"block_name,omitempty"`
	Section    string    `json:"section,omitempty" yaml:"section,omitempty"`
	Name       string    `json:"name" yaml:"name"`
	Offset     uint64    `json:"offset" yaml:"offset"` // bits from the start of the block
	Datatype   string    `json:"datatype" yaml:"datatype"`
	Comments   []Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
	StartValue *string   `json:"start_value,omitempty" yaml:"start_value,omitempty"`
}

// TagKey identifies a tag entry within a device.
type TagKey struct {
	BlockID int
	Name    string
}

// Key returns the composite identity of the entry.
func (e *TagEntry) Key() TagKey {
	return TagKey{BlockID: e.BlockID, Name: e.Name}
}

// ByteBit splits the bit offset into its byte and bit components.
func (e *TagEntry) ByteBit() (byteOffset, bitOffset uint64) {
	return SplitOffset(e.Offset)
}

// ChannelName returns "{block}_{name}", the per-device unique tag name used by
// both generated targets.
func (e *TagEntry) ChannelName() string {
	return fmt.Sprintf("%d_%s", e.BlockID, e.Name)
}

// SplitOffset decomposes a bit offset into byte = offset/8 and bit = offset%8.
func SplitOffset(offset uint64) (byteOffset, bitOffset uint64) {
	return offset / 8, offset % 8
}
