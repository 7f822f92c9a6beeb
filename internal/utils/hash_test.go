package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	assert.Equal(t, HashKey("system", "user"), HashKey("system", "user"))
	assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
	assert.NotEqual(t, HashKey("system", "user"), HashKey("system", "other"))
	assert.Regexp(t, `^[0-9a-f]{1,16}$`, HashKey("x"))
}
