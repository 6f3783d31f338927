package canonicalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJCS_KeyOrdering(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "c": []string{"x", "y"}}
	b := map[string]any{"c": []string{"x", "y"}, "a": 1, "b": 2}

	ja, err := JCS(a)
	require.NoError(t, err)
	jb, err := JCS(b)
	require.NoError(t, err)

	assert.Equal(t, string(ja), string(jb))
	assert.Equal(t, `{"a":1,"b":2,"c":["x","y"]}`, string(ja))
}

func TestCanonicalHash_Deterministic(t *testing.T) {
	v := struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}{"policy-1", 0.95}

	h1, err := CanonicalHash(v)
	require.NoError(t, err)
	h2, err := CanonicalHash(v)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // sha256 hex
}

func TestCanonicalHash_DistinguishesValues(t *testing.T) {
	h1, err := CanonicalHash(map[string]string{"k": "v1"})
	require.NoError(t, err)
	h2, err := CanonicalHash(map[string]string{"k": "v2"})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
