package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Current: 2, Pages: 2, Total: 15, Limit: 10}, NewPagination(2, 10, 15))
	assert.Equal(t, Pagination{Current: 1, Pages: 0, Total: 0, Limit: 10}, NewPagination(1, 10, 0))
	assert.Equal(t, 3, NewPagination(1, 5, 11).Pages)
	assert.Equal(t, 1, NewPagination(1, 12, 12).Pages)
}

func TestProductJSONExpandsCategory(t *testing.T) {
	p := Product{
		ID:         "p1",
		Name:       "Pixel",
		CategoryID: "c1",
		Category:   &CategoryRef{ID: "c1", Name: "Phones"},
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	ref, ok := decoded["categoryId"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Phones", ref["name"])
	assert.NotContains(t, ref, "description")
}
