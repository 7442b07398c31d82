package sfc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HerbHall/plcbridge/pkg/models"
)

// Address is an S7 data-block address: %DB{block}:{byte}.{bit}:{TYPE}.
type Address struct {
	Block    int
	Byte     uint64
	Bit      uint64
	Datatype string
}

// String formats the address. The type token is upper-cased and otherwise
// passed through unchecked.
func (a Address) String() string {
	return fmt.Sprintf("%%DB%d:%d.%d:%s", a.Block, a.Byte, a.Bit, strings.ToUpper(a.Datatype))
}

// EntryAddress returns the address of a tag entry.
func EntryAddress(e *models.TagEntry) Address {
	byteOff, bitOff := e.ByteBit()
	return Address{Block: e.BlockID, Byte: byteOff, Bit: bitOff, Datatype: e.Datatype}
}

// FormatAddress is EntryAddress(e).String().
func FormatAddress(e *models.TagEntry) string {
	return EntryAddress(e).String()
}

// ParseAddress parses an address produced by Address.String.
func ParseAddress(s string) (Address, error) {
	rest, ok := strings.CutPrefix(s, "%DB")
	if !ok {
		return Address{}, fmt.Errorf("address %q: missing %%DB prefix", s)
	}
	block, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return Address{}, fmt.Errorf("address %q: missing offset", s)
	}
	offset, datatype, ok := strings.Cut(rest, ":")
	if !ok || datatype == "" {
		return Address{}, fmt.Errorf("address %q: missing type", s)
	}
	byteStr, bitStr, ok := strings.Cut(offset, ".")
	if !ok {
		return Address{}, fmt.Errorf("address %q: offset is not byte.bit", s)
	}

	var a Address
	var err error
	if a.Block, err = strconv.Atoi(block); err != nil || a.Block < 0 {
		return Address{}, fmt.Errorf("address %q: bad block %q", s, block)
	}
	if a.Byte, err = strconv.ParseUint(byteStr, 10, 64); err != nil {
		return Address{}, fmt.Errorf("address %q: bad byte %q", s, byteStr)
	}
	if a.Bit, err = strconv.ParseUint(bitStr, 10, 64); err != nil || a.Bit > 7 {
		return Address{}, fmt.Errorf("address %q: bad bit %q", s, bitStr)
	}
	a.Datatype = datatype
	return a, nil
}
