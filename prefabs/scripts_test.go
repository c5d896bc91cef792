package prefabs

import (
	"testing"

	"github.com/milk9111/flightrig/ecs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlScriptCutsAfterOneSecond(t *testing.T) {
	useTempDir(t)

	src, err := LoadScript("control.tengo")
	require.NoError(t, err)
	script, err := system.CompileControlScript("control.tengo", src)
	require.NoError(t, err)

	names := []string{"left_aileron", "right_aileron"}

	cuts, err := script.Decide(0.5, 30, names)
	require.NoError(t, err)
	assert.Empty(t, cuts)

	cuts, err = script.Decide(1.02, 61, names)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"left_aileron": true, "right_aileron": true}, cuts)
}
