package sfc

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
)

// TemplateFile is the name of the SFC configuration template.
const TemplateFile = "sfc-conf.json.template"

// ErrTemplateSlot is returned when a value is placed below a template slot
// that does not exist.
var ErrTemplateSlot = errors.New("sfc: template slot missing")

// Document is an SFC configuration document. It is immutable: every With*
// method returns a new Document and leaves the receiver untouched. Keys the
// generator never sets are carried through from the template as they are.
type Document struct {
	root map[string]any
}

// NewDocument returns a Document holding a deep copy of m.
func NewDocument(m map[string]any) Document {
	if m == nil {
		return Document{root: map[string]any{}}
	}
	return Document{root: jsondoc.Clone(m).(map[string]any)}
}

// LoadTemplate reads TemplateFile from fsys.
func LoadTemplate(fsys fs.FS) (Document, error) {
	data, err := fs.ReadFile(fsys, TemplateFile)
	if err != nil {
		return Document{}, fmt.Errorf("read sfc template: %w", err)
	}
	var m map[string]any
	if err := jsondoc.Unmarshal(data, &m); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", TemplateFile, err)
	}
	return NewDocument(m), nil
}

// Map returns a deep copy of the document contents.
func (d Document) Map() map[string]any {
	return NewDocument(d.root).root
}

// Get returns the value at path. Numeric path elements index into lists.
func (d Document) Get(path ...string) (any, bool) {
	var cur any = d.root
	for _, key := range path {
		next, ok := child(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return jsondoc.Clone(cur), true
}

// Set is one assignment applied by WithValues.
type Set struct {
	Path  []string
	Value any
}

// With returns a copy of d with value stored at path.
func (d Document) With(value any, path ...string) (Document, error) {
	return d.WithValues(Set{Path: path, Value: value})
}

// WithValues returns a copy of d with every assignment applied in order.
// Every element of a path except the last must already exist.
func (d Document) WithValues(sets ...Set) (Document, error) {
	out := NewDocument(d.root)
	for _, s := range sets {
		if err := assign(out.root, s.Path, jsondoc.Clone(s.Value)); err != nil {
			return Document{}, err
		}
	}
	return out, nil
}

// Without returns a copy of d with the key at path removed. A missing key is
// not an error.
func (d Document) Without(path ...string) Document {
	out := NewDocument(d.root)
	if len(path) == 0 {
		return out
	}
	var parent any = out.root
	for _, key := range path[:len(path)-1] {
		next, ok := child(parent, key)
		if !ok {
			return out
		}
		parent = next
	}
	if m, ok := parent.(map[string]any); ok {
		delete(m, path[len(path)-1])
	}
	return out
}

func assign(root map[string]any, path []string, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrTemplateSlot)
	}
	var parent any = root
	for i, key := range path[:len(path)-1] {
		next, ok := child(parent, key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTemplateSlot, strings.Join(path[:i+1], "."))
		}
		parent = next
	}

	last := path[len(path)-1]
	switch p := parent.(type) {
	case map[string]any:
		p[last] = value
		return nil
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(p) {
			return fmt.Errorf("%w: %s", ErrTemplateSlot, strings.Join(path, "."))
		}
		p[i] = value
		return nil
	}
	return fmt.Errorf("%w: %s is not an object", ErrTemplateSlot, strings.Join(path[:len(path)-1], "."))
}

func child(node any, key string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[key]
		return v, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	}
	return nil, false
}
