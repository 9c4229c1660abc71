package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, 42)

	n, err := DecodeHeader(buf)
	assert.NoError(t, err)
	assert.Equal(t, uint32(42), n)
}

func TestDecodeHeaderRejectsShortInput(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeHeaderRejectsBadVersion(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, 0)
	buf[0] = 9
	_, err := DecodeHeader(buf)
	assert.Error(t, err)
}

func TestDecodeHeaderRejectsBadType(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, 0)
	buf[1] = 9
	_, err := DecodeHeader(buf)
	assert.Error(t, err)
}
