package channela

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCyclesAcyclic(t *testing.T) {
	ast := `{
		"a": {"value": 1},
		"b": {"value": "$ref:a"},
		"c": {"value": "$ref:b"}
	}`
	assert.False(t, DetectCycles([]byte(ast)))
}

func TestDetectCyclesSelfReference(t *testing.T) {
	assert.True(t, DetectCycles([]byte(`{"a": {"value": "$ref:a"}}`)))
}

func TestDetectCyclesTwoNodeRef(t *testing.T) {
	ast := `{
		"a": {"value": "$ref:b"},
		"b": {"value": "$ref:a"}
	}`
	assert.True(t, DetectCycles([]byte(ast)))
}

func TestDetectCyclesThreeNodeRef(t *testing.T) {
	ast := `{
		"a": {"value": "$ref:b"},
		"b": {"value": "$ref:c"},
		"c": {"value": "$ref:a"}
	}`
	assert.True(t, DetectCycles([]byte(ast)))
}

func TestDetectCyclesDependenciesArray(t *testing.T) {
	ast := `{
		"a": {"dependencies": ["b"]},
		"b": {"dependencies": ["a"]}
	}`
	assert.True(t, DetectCycles([]byte(ast)))
}

func TestDetectCyclesDepsAndRequiresAliases(t *testing.T) {
	assert.True(t, DetectCycles([]byte(`{"a": {"deps": ["b"]}, "b": {"requires": ["a"]}}`)))
	assert.True(t, DetectCycles([]byte(`{"a": {"depends_on": ["a"]}}`)))
}

func TestDetectCyclesSiblingStringMatch(t *testing.T) {
	// A bare string naming a sibling key is an edge.
	assert.True(t, DetectCycles([]byte(`{"a": "b", "b": "a"}`)))
	// One-directional reference is not a cycle.
	assert.False(t, DetectCycles([]byte(`{"name": "alice", "alice": 1}`)))
}

func TestDetectCyclesComplexAcyclic(t *testing.T) {
	ast := `{
		"root": {"depends_on": ["a", "b"]},
		"a": {"depends_on": ["c"]},
		"b": {"depends_on": ["c"]},
		"c": {"value": 1}
	}`
	assert.False(t, DetectCycles([]byte(ast)))
}

func TestDetectCyclesEmptyAST(t *testing.T) {
	assert.False(t, DetectCycles([]byte(`{}`)))
}

func TestDetectCyclesUnresolvedReference(t *testing.T) {
	assert.False(t, DetectCycles([]byte(`{"a": {"value": "$ref:nonexistent"}}`)))
}

func TestDetectCyclesBudgetExceeded(t *testing.T) {
	huge := `{"pad": "` + strings.Repeat("x", 64*1024) + `"}`
	assert.True(t, DetectCycles([]byte(huge)))
}

func TestCycleDetail(t *testing.T) {
	ast := `{
		"a": {"value": "$ref:b"},
		"b": {"value": "$ref:a"},
		"c": {"value": "$ref:c"}
	}`
	cycles := CycleDetail([]byte(ast))
	assert.Len(t, cycles, 2)
}
