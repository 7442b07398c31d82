// Package xmltree parses vendor XML exports into a generic element tree and
// provides selector functions for querying it.
//
// The engineering tool exports (AutomationML/CAEX and data-block XML) are
// large, namespaced and only partly relevant, so rather than mirroring their
// schemas in structs the readers parse into a Node tree once and then select
// the few paths they need.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Kind classifies an element by its local name. Elements the readers do not
// care about are KindOther; their Name is still available.
type Kind int

const (
	KindOther Kind = iota
	KindCAEXFile
	KindInstanceHierarchy
	KindInternalElement
	KindAttribute
	KindValue
	KindDocument
	KindGlobalDB
	KindInstanceDB
	KindAttributeList
	KindInterface
	KindSections
	KindSection
	KindMember
	KindIntegerAttribute
	KindComment
	KindMultiLanguageText
	KindStartValue
)

var kindNames = map[string]Kind{
	"CAEXFile":             KindCAEXFile,
	"InstanceHierarchy":    KindInstanceHierarchy,
	"InternalElement":      KindInternalElement,
	"Attribute":            KindAttribute,
	"Value":                KindValue,
	"Document":             KindDocument,
	"SW.Blocks.GlobalDB":   KindGlobalDB,
	"SW.Blocks.InstanceDB": KindInstanceDB,
	"AttributeList":        KindAttributeList,
	"Interface":            KindInterface,
	"Sections":             KindSections,
	"Section":              KindSection,
	"Member":               KindMember,
	"IntegerAttribute":     KindIntegerAttribute,
	"Comment":              KindComment,
	"MultiLanguageText":    KindMultiLanguageText,
	"StartValue":           KindStartValue,
}

// KindOf returns the Kind for an element local name.
func KindOf(local string) Kind {
	return kindNames[local]
}

// Node is one XML element.
type Node struct {
	Kind     Kind
	Name     string            // element local name
	Attrs    map[string]string // attributes by local name
	Text     string            // concatenated character data, untrimmed
	Children []*Node
}

// Attr returns the named attribute or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// TrimmedText returns the element's character data without surrounding whitespace.
func (n *Node) TrimmedText() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// ParseError reports an export file that is not well-formed XML.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFile reads and parses the XML file at path.
func ParseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse builds the element tree from r. source names the input in errors.
func Parse(r io.Reader, source string) (*Node, error) {
	dec := xml.NewDecoder(r)

	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: source, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Kind:  KindOf(t.Name.Local),
				Name:  t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &ParseError{Source: source, Err: errors.New("multiple root elements")}
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			top := len(stack) - 1
			stack[top].Text = text[top].String()
			stack = stack[:top]
			text = text[:top]
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, &ParseError{Source: source, Err: errors.New("no root element")}
	}
	if len(stack) != 0 {
		return nil, &ParseError{Source: source, Err: io.ErrUnexpectedEOF}
	}
	return root, nil
}
