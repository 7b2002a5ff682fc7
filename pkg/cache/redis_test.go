package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "certisched:lock:grp-1", Key("lock", "grp-1"))
	assert.Equal(t, "certisched:", Key())
}
