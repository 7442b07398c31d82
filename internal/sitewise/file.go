package sitewise

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
)

// ReadFile loads a bulk-import document. A missing file yields an empty
// document so callers can append to a path that does not exist yet.
func ReadFile(path string) (*Bulk, error) {
	b := NewBulk()
	err := jsondoc.ReadFile(path, b)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBulk(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bulk import: %w", err)
	}
	b.normalize()
	return b, nil
}

// WriteFile stores b at path with two-space indentation.
func WriteFile(path string, b *Bulk) error {
	if b == nil {
		return ErrNilBulk
	}
	return jsondoc.WriteFile(path, b, jsondoc.IndentSiteWise)
}

// normalize replaces absent lists with empty ones so that a document read
// from disk encodes the same way as a generated one.
func (b *Bulk) normalize() {
	if b.AssetModels == nil {
		b.AssetModels = []*AssetModel{}
	}
	if b.Assets == nil {
		b.Assets = []*Asset{}
	}
	for _, m := range b.AssetModels {
		if m.AssetModelProperties == nil {
			m.AssetModelProperties = []*AssetModelProperty{}
		}
		if m.AssetModelHierarchies == nil {
			m.AssetModelHierarchies = []*AssetModelHierarchy{}
		}
	}
	for _, a := range b.Assets {
		if a.AssetProperties == nil {
			a.AssetProperties = []*AssetProperty{}
		}
		if a.AssetHierarchies == nil {
			a.AssetHierarchies = []*AssetHierarchy{}
		}
	}
}
