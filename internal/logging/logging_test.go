package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionAndDevelopmentBothBuild(t *testing.T) {
	prod, err := New(false)
	require.NoError(t, err)
	assert.NotNil(t, prod)

	dev, err := New(true)
	require.NoError(t, err)
	assert.NotNil(t, dev)
}

func TestNew_EachCallReturnsADistinctLogger(t *testing.T) {
	a, err := New(false)
	require.NoError(t, err)
	b, err := New(false)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}
