package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_SingleLabel(t *testing.T) {
	assert.ElementsMatch(t, []Category{CategoryErrorDiagnosis}, Classify("why does this throw an exception"))
}

func TestClassify_MultiLabel(t *testing.T) {
	cats := Classify("how does this fail across multiple services")
	assert.Contains(t, cats, CategoryMethodBehavior)
	assert.Contains(t, cats, CategoryErrorDiagnosis)
	assert.Contains(t, cats, CategoryCrossComponent)
}

func TestClassify_DefaultsToCodeLocation(t *testing.T) {
	assert.Equal(t, []Category{CategoryCodeLocation}, Classify("zzz unrelated gibberish"))
}

func TestClassify_ConfigImpact(t *testing.T) {
	assert.Contains(t, Classify("what happens if I change this config flag"), CategoryConfigImpact)
}
