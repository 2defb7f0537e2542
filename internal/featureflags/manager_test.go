package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")
}

func TestEnabled_Defaults(t *testing.T) {
	assert.True(t, NewManager("").Enabled(SearchFallback, 0))
	assert.False(t, NewManager("search_fallback=off").Enabled(SearchFallback, 0))
	assert.True(t, NewManager(" SEARCH_FALLBACK = On ").Enabled(SearchFallback, 0))

	var nilManager *Manager
	assert.True(t, nilManager.Enabled(OAuthGoogle, 0))
	assert.False(t, nilManager.Enabled("unknown", 0))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3+len(defaults))
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.True(t, snap[SearchFallback])
}
