// Package blockexport reads PLC data-block exports (SW.Blocks XML) into tag entries.
package blockexport

import (
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/plcbridge/internal/xmltree"
	"github.com/HerbHall/plcbridge/pkg/models"
)

// FormatError reports a value in a block export that must be a non-negative
// integer but is not. It fails the whole file.
type FormatError struct {
	File   string
	Block  string
	Member string // empty for block-level fields
	Field  string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s: block %q: %s %q is not a non-negative integer", e.File, e.Block, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: block %q member %q: %s %q is not a non-negative integer",
		e.File, e.Block, e.Member, e.Field, e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Export is the result of reading one block export file.
type Export struct {
	Entries []models.TagEntry
	Skipped int // members without a usable attribute list
}

var (
	isBlock = xmltree.Any(
		xmltree.OfKind(xmltree.KindGlobalDB),
		xmltree.OfKind(xmltree.KindInstanceDB),
	)
	isAttributeList = xmltree.OfKind(xmltree.KindAttributeList)
	isOffset        = xmltree.All(
		xmltree.OfKind(xmltree.KindIntegerAttribute),
		xmltree.AttrEquals("Name", "Offset"),
	)
	anyElement = func(*xmltree.Node) bool { return true }
)

// ReadFile parses the block export at path.
func ReadFile(path string, logger *zap.Logger) (Export, error) {
	root, err := xmltree.ParseFile(path)
	if err != nil {
		return Export{}, err
	}
	return fromTree(root, path, logger)
}

// Read parses a block export from r. source names the input in errors and logs.
func Read(r io.Reader, source string, logger *zap.Logger) (Export, error) {
	root, err := xmltree.Parse(r, source)
	if err != nil {
		return Export{}, err
	}
	return fromTree(root, source, logger)
}

func fromTree(root *xmltree.Node, source string, logger *zap.Logger) (Export, error) {
	if root.Kind != xmltree.KindDocument {
		return Export{}, &xmltree.ParseError{
			Source: source,
			Err:    fmt.Errorf("root element is %q, want Document", root.Name),
		}
	}

	var out Export
	for _, db := range root.Select(isBlock) {
		blk, err := readBlock(db, source, logger)
		if err != nil {
			return Export{}, err
		}
		out.Entries = append(out.Entries, blk.Entries...)
		out.Skipped += blk.Skipped
	}
	return out, nil
}

func readBlock(db *xmltree.Node, source string, logger *zap.Logger) (Export, error) {
	attrs := db.First(isAttributeList)
	name := attrs.First(xmltree.Named("Name")).TrimmedText()
	rawNumber := attrs.First(xmltree.Named("Number")).TrimmedText()

	number, err := strconv.Atoi(rawNumber)
	if err != nil || number < 0 {
		return Export{}, &FormatError{File: source, Block: name, Field: "Number", Value: rawNumber, Err: err}
	}

	log := logger.With(zap.String("file", source), zap.Int("block", number))

	var out Export
	sections := attrs.Path(xmltree.OfKind(xmltree.KindInterface), xmltree.OfKind(xmltree.KindSections))
	for _, section := range sections.Select(xmltree.OfKind(xmltree.KindSection)) {
		for _, member := range section.Select(xmltree.OfKind(xmltree.KindMember)) {
			entry, ok, err := readMember(member, source, name, number)
			if err != nil {
				return Export{}, err
			}
			if !ok {
				log.Warn("member has no attribute list, skipping",
					zap.String("member", member.Attr("Name")),
				)
				out.Skipped++
				continue
			}
			entry.Section = section.Attr("Name")
			out.Entries = append(out.Entries, entry)
		}
	}
	return out, nil
}

// readMember returns ok=false for members that cannot be placed in the block.
func readMember(member *xmltree.Node, source, block string, number int) (models.TagEntry, bool, error) {
	attrs := member.First(isAttributeList)
	offsetNode := attrs.First(isOffset)
	if offsetNode == nil {
		offsetNode = attrs.First(anyElement)
	}
	if offsetNode == nil {
		return models.TagEntry{}, false, nil
	}

	raw := offsetNode.TrimmedText()
	offset, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return models.TagEntry{}, false, &FormatError{
			File:   source,
			Block:  block,
			Member: member.Attr("Name"),
			Field:  "Offset",
			Value:  raw,
			Err:    err,
		}
	}

	entry := models.TagEntry{
		BlockID:   number,
		BlockName: block,
		Name:      member.Attr("Name"),
		Offset:    offset,
		Datatype:  member.Attr("Datatype"),
		Comments:  readComments(member),
	}
	if sv := member.First(xmltree.OfKind(xmltree.KindStartValue)); sv != nil {
		v := sv.TrimmedText()
		entry.StartValue = &v
	}
	return entry, true, nil
}

func readComments(member *xmltree.Node) []models.Comment {
	var out []models.Comment
	for _, c := range member.Select(xmltree.OfKind(xmltree.KindComment)) {
		for _, text := range c.Select(xmltree.OfKind(xmltree.KindMultiLanguageText)) {
			out = append(out, models.Comment{Lang: text.Attr("Lang"), Text: text.TrimmedText()})
		}
	}
	return out
}
