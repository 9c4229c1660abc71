package infoerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(BadParam, "missing required parameter: ns")
	assert.Equal(t, "bad-param: missing required parameter: ns", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(Conflict, "index %s already exists", "idx_age")
	assert.Equal(t, Conflict, err.Kind)
	assert.Equal(t, "index idx_age already exists", err.Detail)
}

func TestWireFraming(t *testing.T) {
	err := New(NotFound, "no roster entry for namespace: test")
	assert.Equal(t, []byte("ERROR::no roster entry for namespace: test"), err.Wire())
	assert.Equal(t, []byte("FAIL::no roster entry for namespace: test"), err.WireFail())
}

func TestCodeIsAlwaysEmpty(t *testing.T) {
	for _, kind := range []Kind{BadParam, TooLong, NotFound, Conflict, MaxCount, EnterpriseOnly, Timeout, Auth, Generic} {
		err := New(kind, "detail")
		assert.Equal(t, "", err.Code())
	}
}
