package dynbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendPrimitives(t *testing.T) {
	b := NewSize(0)
	b.AppendString("abc").AppendByte(',').AppendUint(42).AppendByte(',').AppendInt(-7).AppendByte(',').AppendBool(true)
	assert.Equal(t, "abc,42,-7,true", b.String())
}

func TestAppendUintHex(t *testing.T) {
	b := NewSize(0)
	b.AppendUintHex(255)
	assert.Equal(t, "ff", b.String())
}

func TestAppendFloat(t *testing.T) {
	b := NewSize(0)
	b.AppendFloat(3.14159, 2)
	assert.Equal(t, "3.14", b.String())
}

func TestAppendSafeString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"non-empty", "value", "value"},
		{"empty", "", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewSize(0)
			b.AppendSafeString(tt.in)
			assert.Equal(t, tt.expected, b.String())
		})
	}
}

func TestAppendPairsAndChomp(t *testing.T) {
	b := NewSize(0)
	b.AppendPairInt("memory-size", 1024)
	b.AppendPairBool("compression", false)
	b.AppendPairFloat("ratio", 0.5, 1)
	b.Chomp(';')
	assert.Equal(t, "memory-size=1024;compression=false;ratio=0.5", b.String())
}

func TestChompNoOpOnMismatch(t *testing.T) {
	b := NewSize(0)
	b.AppendString("no-trailing-semicolon")
	b.Chomp(';')
	assert.Equal(t, "no-trailing-semicolon", b.String())
}

func TestAppendNameValue(t *testing.T) {
	b := NewSize(0)
	b.AppendNameValue("statistics", "uptime=10")
	assert.Equal(t, "statistics\tuptime=10\n", b.String())
}

func TestAppendLine(t *testing.T) {
	b := NewSize(0)
	b.AppendLine("first")
	b.AppendLine("second")
	assert.Equal(t, "first\nsecond\n", b.String())
}

func TestResetReusesBacking(t *testing.T) {
	b := NewSize(16)
	b.AppendString("hello")
	b.Reset()
	assert.Equal(t, 0, b.Len())
	b.AppendString("world")
	assert.Equal(t, "world", b.String())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a,b,c", Join([]string{"a", "b", "c"}, ","))
	assert.Equal(t, "", Join(nil, ","))
}

func TestBytesAliasesBacking(t *testing.T) {
	b := New()
	b.AppendString("abc")
	assert.Equal(t, []byte("abc"), b.Bytes())
}
