package paramstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		key             string
		maxLen          int
		expectedValue   string
		expectedOutcome Outcome
	}{
		{"found", "ns=test;indexname=idx_age", "ns", 0, "test", Found},
		{"missing", "ns=test", "indexname", 0, "", Missing},
		{"too long", "ns=test", "ns", 2, "test", TooLong},
		{"empty raw", "", "ns", 0, "", Missing},
		{"first pair wins duplicate scan order", "a=1;a=2", "a", 0, "1", Found},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, outcome := Get(tt.raw, tt.key, tt.maxLen)
			assert.Equal(t, tt.expectedValue, v)
			assert.Equal(t, tt.expectedOutcome, outcome)
		})
	}
}

func TestParamsGetDefault(t *testing.T) {
	p := Parse("context=service;ticker-interval=2")
	assert.Equal(t, "service", p.GetDefault("context", "namespace"))
	assert.Equal(t, "fallback", p.GetDefault("missing", "fallback"))
}

func TestParamsHas(t *testing.T) {
	p := Parse("a=1;b=2")
	assert.True(t, p.Has("a"))
	assert.False(t, p.Has("c"))
}

func TestParamsAll(t *testing.T) {
	p := Parse("a=1;b=2;malformed;c=3")
	all := p.All()
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, all)
}

func TestParamsAllEmpty(t *testing.T) {
	p := Parse("")
	assert.Empty(t, p.All())
}

func TestEncode(t *testing.T) {
	s := Encode([][2]string{{"ns", "test"}, {"indexname", "idx_age"}})
	assert.Equal(t, "ns=test;indexname=idx_age", s)
}
