package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBodyEmpty(t *testing.T) {
	assert.Nil(t, ParseBody(""))
}

func TestParseBodyLookupLines(t *testing.T) {
	lines := ParseBody("node-id\nstatistics\n")
	assert.Equal(t, []Line{{Name: "node-id"}, {Name: "statistics"}}, lines)
}

func TestParseBodyCommandLine(t *testing.T) {
	lines := ParseBody("roster-set:namespace=test;nodes=n1,n2\n")
	assert.Equal(t, []Line{{Name: "roster-set", Params: "namespace=test;nodes=n1,n2", IsCommand: true}}, lines)
}

func TestParseBodyTrailingLineWithoutNewline(t *testing.T) {
	lines := ParseBody("node-id")
	assert.Equal(t, []Line{{Name: "node-id"}}, lines)
}

func TestParseBodyMixedLookupAndCommand(t *testing.T) {
	lines := ParseBody("node-id\ntruncate:namespace=test;lut=1000\nstatistics\n")
	assert.Len(t, lines, 3)
	assert.False(t, lines[0].IsCommand)
	assert.True(t, lines[1].IsCommand)
	assert.False(t, lines[2].IsCommand)
}

func TestSplitTreeName(t *testing.T) {
	base, subtree, ok := SplitTreeName("namespace/test")
	assert.True(t, ok)
	assert.Equal(t, "namespace", base)
	assert.Equal(t, "test", subtree)

	_, _, ok = SplitTreeName("statistics")
	assert.False(t, ok)
}
