package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenConnectionsTracksPairedCounters(t *testing.T) {
	before := OpenConnections()
	RecordConnectionOpened()
	RecordConnectionOpened()
	assert.Equal(t, before+2, OpenConnections())

	RecordConnectionClosed()
	assert.Equal(t, before+1, OpenConnections())
}
