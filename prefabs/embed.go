package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dir is the on-disk prefab directory. Files found there shadow the
// embedded copies so rigs can be edited without rebuilding.
var Dir = "prefabs"

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml
var PrefabsFS embed.FS

// Source is one prefab file and where it came from.
type Source struct {
	// Path is slash separated and relative to the prefab root.
	Path    string
	Data    []byte
	OnDisk  bool
	ModTime time.Time
}

func (s Source) Origin() string {
	if s.OnDisk {
		return "disk"
	}
	return "embedded"
}

// OpenPrefab reads a rig spec. Absolute paths bypass the prefab root.
func OpenPrefab(name string) (Source, error) {
	if filepath.IsAbs(name) {
		return readDisk(filepath.ToSlash(name), name)
	}
	return open(PrefabsFS, cleanPrefabPath(name))
}

func OpenScript(name string) (Source, error) {
	return open(ScriptsFS, cleanScriptPath(name))
}

func Load(name string) ([]byte, error) {
	src, err := OpenPrefab(name)
	return src.Data, err
}

func LoadScript(name string) ([]byte, error) {
	src, err := OpenScript(name)
	return src.Data, err
}

func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPrefabPath(cleanPrefabPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Rigs lists every rig spec name, embedded or on disk, sorted.
func Rigs() []string {
	seen := map[string]bool{}
	if names, err := fs.Glob(PrefabsFS, "*.yaml"); err == nil {
		for _, n := range names {
			seen[n] = true
		}
	}
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(Dir, pattern))
		for _, m := range matches {
			seen[filepath.Base(m)] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func open(fsys embed.FS, clean string) (Source, error) {
	if clean == "" {
		return Source{}, fmt.Errorf("prefab: empty name")
	}
	if src, err := readDisk(clean, diskPrefabPath(clean)); err == nil {
		return src, nil
	}
	data, err := fsys.ReadFile(clean)
	if err != nil {
		return Source{}, fmt.Errorf("prefab %s: %w", clean, err)
	}
	return Source{Path: clean, Data: data}, nil
}

func readDisk(clean, path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("prefab %s: is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	return Source{Path: clean, Data: data, OnDisk: true, ModTime: info.ModTime()}, nil
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)
	for _, prefix := range []string{"prefabs/", "scripts/"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
		}
	}
	return "scripts/" + s
}

func diskPrefabPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
