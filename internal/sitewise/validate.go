package sitewise

import (
	"errors"
	"fmt"
)

// maxHierarchyDepth bounds the asset hierarchy walk.
const maxHierarchyDepth = 64

// Validate checks the structural closure of a bulk document: every asset
// references a declared model, every property and hierarchy edge resolves
// within that model, every child exists, and the asset hierarchy is a forest.
// All problems are reported together.
func Validate(b *Bulk) error {
	if b == nil {
		return ErrNilBulk
	}
	var errs []error

	modelsByID := make(map[string]*AssetModel, len(b.AssetModels))
	for _, m := range b.AssetModels {
		if _, dup := modelsByID[m.AssetModelExternalID]; dup {
			errs = append(errs, fmt.Errorf("duplicate asset model external id %q", m.AssetModelExternalID))
			continue
		}
		modelsByID[m.AssetModelExternalID] = m
	}
	for _, m := range b.AssetModels {
		for _, h := range m.AssetModelHierarchies {
			if _, ok := modelsByID[h.ChildAssetModelExternalID]; !ok {
				errs = append(errs, fmt.Errorf("asset model %q: hierarchy %q references unknown model %q",
					m.AssetModelExternalID, h.ExternalID, h.ChildAssetModelExternalID))
			}
		}
	}

	assetsByID := make(map[string]*Asset, len(b.Assets))
	for _, a := range b.Assets {
		if _, dup := assetsByID[a.AssetExternalID]; dup {
			errs = append(errs, fmt.Errorf("duplicate asset external id %q", a.AssetExternalID))
			continue
		}
		assetsByID[a.AssetExternalID] = a
	}
	for _, a := range b.Assets {
		errs = append(errs, checkAsset(a, modelsByID[a.AssetModelExternalID], assetsByID)...)
	}

	errs = append(errs, checkForest(b.Assets, assetsByID)...)
	return errors.Join(errs...)
}

func checkAsset(a *Asset, m *AssetModel, assets map[string]*Asset) []error {
	var errs []error
	if m == nil {
		return append(errs, fmt.Errorf("asset %q references unknown asset model %q",
			a.AssetExternalID, a.AssetModelExternalID))
	}

	props := make(map[string]bool, len(m.AssetModelProperties))
	for _, p := range m.AssetModelProperties {
		props[p.ExternalID] = true
	}
	for _, p := range a.AssetProperties {
		if !props[p.ExternalID] {
			errs = append(errs, fmt.Errorf("asset %q: property %q is not declared by model %q",
				a.AssetExternalID, p.ExternalID, m.AssetModelExternalID))
		}
	}

	hierarchies := make(map[string]bool, len(m.AssetModelHierarchies))
	for _, h := range m.AssetModelHierarchies {
		hierarchies[h.ExternalID] = true
	}
	for _, h := range a.AssetHierarchies {
		if !hierarchies[h.ExternalID] {
			errs = append(errs, fmt.Errorf("asset %q: hierarchy %q is not declared by model %q",
				a.AssetExternalID, h.ExternalID, m.AssetModelExternalID))
		}
		if _, ok := assets[h.ChildAssetExternalID]; !ok {
			errs = append(errs, fmt.Errorf("asset %q: hierarchy %q references unknown asset %q",
				a.AssetExternalID, h.ExternalID, h.ChildAssetExternalID))
		}
	}
	return errs
}

// checkForest walks the asset hierarchy from its roots. Every asset must be
// reached exactly once within maxHierarchyDepth levels.
func checkForest(assets []*Asset, byID map[string]*Asset) []error {
	children := make(map[string][]string, len(assets))
	isChild := make(map[string]bool, len(assets))
	for _, a := range assets {
		for _, h := range a.AssetHierarchies {
			if _, ok := byID[h.ChildAssetExternalID]; !ok {
				continue
			}
			children[a.AssetExternalID] = append(children[a.AssetExternalID], h.ChildAssetExternalID)
			isChild[h.ChildAssetExternalID] = true
		}
	}

	w := &walker{children: children, visited: make(map[string]bool, len(assets))}
	for _, a := range assets {
		if !isChild[a.AssetExternalID] && !w.visited[a.AssetExternalID] {
			w.visit(a.AssetExternalID, 0)
		}
	}
	for _, a := range assets {
		if !w.visited[a.AssetExternalID] {
			w.errs = append(w.errs, fmt.Errorf("asset %q is not reachable from a root asset (hierarchy cycle)",
				a.AssetExternalID))
			w.visited[a.AssetExternalID] = true
		}
	}
	return w.errs
}

type walker struct {
	children map[string][]string
	visited  map[string]bool
	errs     []error
}

func (w *walker) visit(id string, depth int) {
	if depth > maxHierarchyDepth {
		w.errs = append(w.errs, fmt.Errorf("asset hierarchy exceeds %d levels at %q", maxHierarchyDepth, id))
		return
	}
	if w.visited[id] {
		w.errs = append(w.errs, fmt.Errorf("asset %q is reachable through more than one hierarchy edge", id))
		return
	}
	w.visited[id] = true
	for _, c := range w.children[id] {
		w.visit(c, depth+1)
	}
}
