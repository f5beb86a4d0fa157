package minutia

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSort(t *testing.T) {
	ms := []Minutia{
		{X: 5, Y: 2, Type: Bifurcation},
		{X: 1, Y: 9},
		{X: 5, Y: 2, Type: Ending},
		{X: 0, Y: 2},
	}

	Sort(ms)

	assert.Equal(t, []Minutia{
		{X: 0, Y: 2},
		{X: 5, Y: 2, Type: Ending},
		{X: 5, Y: 2, Type: Bifurcation},
		{X: 1, Y: 9},
	}, ms)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "ending", Ending.String())
	assert.Equal(t, "bifurcation", Bifurcation.String())
	assert.Equal(t, "Type(7)", Type(7).String())
}
