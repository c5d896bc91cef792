package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCleanScriptPath(t *testing.T) {
	tests := map[string]string{
		"control.tengo":                 "scripts/control.tengo",
		"scripts/control.tengo":         "scripts/control.tengo",
		"prefabs/control.tengo":         "scripts/control.tengo",
		"prefabs/scripts/control.tengo": "scripts/control.tengo",
		"":                              "",
	}
	for in, want := range tests {
		if got := cleanScriptPath(in); got != want {
			t.Errorf("cleanScriptPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanPrefabPath(t *testing.T) {
	assert.Equal(t, "rig.yaml", cleanPrefabPath("prefabs/rig.yaml"))
	assert.Equal(t, "rig.yaml", cleanPrefabPath("rig.yaml"))
	assert.Equal(t, "", cleanPrefabPath(""))
}

func TestLoadScript(t *testing.T) {
	useTempDir(t)

	data, err := LoadScript("control.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(data), "update := func(engine, state)")

	writeFile(t, Dir, "scripts/control.tengo", "update := func(engine, state) {}\n")
	data, err = LoadScript("control.tengo")
	require.NoError(t, err)
	assert.Equal(t, "update := func(engine, state) {}\n", string(data))

	_, err = LoadScript("missing.tengo")
	assert.Error(t, err)
}

func TestModTime(t *testing.T) {
	useTempDir(t)

	_, ok := ModTime("rig.yaml")
	assert.False(t, ok, "embedded files have no disk mod time")

	writeFile(t, Dir, "rig.yaml", minimalRig)
	mt, ok := ModTime("rig.yaml")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), mt, time.Minute)
}

func useTempDir(t *testing.T) {
	t.Helper()
	old := Dir
	Dir = t.TempDir()
	t.Cleanup(func() { Dir = old })
}

func TestOpenPrefabOrigin(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	src, err := OpenPrefab("rig.yaml")
	require.NoError(t, err)
	assert.False(t, src.OnDisk)
	assert.Equal(t, "embedded", src.Origin())
	assert.Equal(t, "rig.yaml", src.Path)

	writeFile(t, dir, "rig.yaml", minimalRig)
	src, err = OpenPrefab("prefabs/rig.yaml")
	require.NoError(t, err)
	assert.True(t, src.OnDisk)
	assert.Equal(t, "disk", src.Origin())
	assert.Equal(t, minimalRig, string(src.Data))

	abs := writeFile(t, t.TempDir(), "elsewhere.yaml", minimalRig)
	src, err = OpenPrefab(abs)
	require.NoError(t, err)
	assert.True(t, src.OnDisk)

	_, err = OpenPrefab("")
	assert.Error(t, err)
}

func TestRigs(t *testing.T) {
	useTempDir(t)
	assert.Equal(t, []string{"rig.yaml"}, Rigs())

	writeFile(t, Dir, "biplane.yml", minimalRig)
	writeFile(t, Dir, "rig.yaml", minimalRig)
	writeFile(t, Dir, "notes.txt", "x")
	assert.Equal(t, []string{"biplane.yml", "rig.yaml"}, Rigs())
}
