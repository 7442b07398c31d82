package sitewise

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain returns a document of n assets where asset i is the parent of asset i+1.
func chain(n int) *Bulk {
	b := NewBulk()
	m := NewAssetModel("m", "m")
	m.AssetModelHierarchies = append(m.AssetModelHierarchies, &AssetModelHierarchy{
		Name: "child", ExternalID: "child", ChildAssetModelExternalID: "m",
	})
	b.AddAssetModel(m)
	for i := range n {
		b.AddAsset(NewAsset(fmt.Sprint(i), fmt.Sprint(i), m))
	}
	for i := 0; i+1 < n; i++ {
		b.Assets[i].AssetHierarchies = append(b.Assets[i].AssetHierarchies, &AssetHierarchy{
			ExternalID: "child", ChildAssetExternalID: fmt.Sprint(i + 1),
		})
	}
	return b
}

func TestValidate_closure_violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Bulk)
		wantErr string
	}{
		{
			name:    "unknown model",
			mutate:  func(b *Bulk) { b.Assets[0].AssetModelExternalID = "missing" },
			wantErr: `references unknown asset model "missing"`,
		},
		{
			name: "dangling hierarchy edge",
			mutate: func(b *Bulk) {
				b.Assets[1].AssetHierarchies = []*AssetHierarchy{{ExternalID: "child", ChildAssetExternalID: "ghost"}}
			},
			wantErr: `references unknown asset "ghost"`,
		},
		{
			name: "undeclared property",
			mutate: func(b *Bulk) {
				b.Assets[0].AssetProperties = []*AssetProperty{{ExternalID: "nope", Alias: "x"}}
			},
			wantErr: `property "nope" is not declared`,
		},
		{
			name: "undeclared hierarchy",
			mutate: func(b *Bulk) {
				b.Assets[0].AssetHierarchies[0].ExternalID = "other"
			},
			wantErr: `hierarchy "other" is not declared`,
		},
		{
			name: "model hierarchy to unknown model",
			mutate: func(b *Bulk) {
				b.AssetModels[0].AssetModelHierarchies[0].ChildAssetModelExternalID = "gone"
			},
			wantErr: `references unknown model "gone"`,
		},
		{
			name:    "duplicate asset",
			mutate:  func(b *Bulk) { b.Assets[1].AssetExternalID = "0" },
			wantErr: `duplicate asset external id "0"`,
		},
		{
			name: "cycle",
			mutate: func(b *Bulk) {
				b.Assets[1].AssetHierarchies = []*AssetHierarchy{{ExternalID: "child", ChildAssetExternalID: "0"}}
			},
			wantErr: "hierarchy cycle",
		},
		{
			name: "two parents",
			mutate: func(b *Bulk) {
				b.Assets[0].AssetHierarchies = append(b.Assets[0].AssetHierarchies,
					&AssetHierarchy{ExternalID: "child", ChildAssetExternalID: "2"})
			},
			wantErr: `asset "2" is reachable through more than one hierarchy edge`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := chain(3)
			require.NoError(t, Validate(b))
			tc.mutate(b)
			err := Validate(b)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_depth_bound(t *testing.T) {
	assert.NoError(t, Validate(chain(maxHierarchyDepth+1)))

	err := Validate(chain(maxHierarchyDepth + 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestValidate_reports_all_problems(t *testing.T) {
	b := chain(2)
	b.Assets[0].AssetModelExternalID = "x"
	b.Assets[1].AssetModelExternalID = "y"

	err := Validate(b)
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "unknown asset model"))
}

func TestValidate_nil(t *testing.T) {
	assert.True(t, errors.Is(Validate(nil), ErrNilBulk))
}
