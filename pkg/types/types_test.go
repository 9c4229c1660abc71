package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressionRatioZeroOrigSizeIsOne(t *testing.T) {
	s := NamespaceStats{}
	assert.Equal(t, 1.0, s.CompressionRatio())
}

func TestCompressionRatioComputesFraction(t *testing.T) {
	s := NamespaceStats{AvgCompSize: 50, AvgOrigSize: 200}
	assert.Equal(t, 0.25, s.CompressionRatio())
}
