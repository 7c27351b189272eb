package collection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oberrors "github.com/obsidx/obsidx/internal/errors"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), RegistryFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistryMissingFileYieldsEmpty(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
}

func TestLoadRegistryMalformedYAML(t *testing.T) {
	path := writeRegistry(t, "collections: [not a map")
	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestResolveNamedCollection(t *testing.T) {
	path := writeRegistry(t, "collections:\n  work: /vaults/work\n  notes: /vaults/notes\n")
	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	root, coll, err := reg.Resolve("work", "/tmp/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/vaults/work", root)
	assert.Equal(t, "work", coll)
}

func TestResolveEmptyNameUsesFallback(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	root, coll, err := reg.Resolve("", "/vaults/literal")
	require.NoError(t, err)
	assert.Equal(t, "/vaults/literal", root)
	assert.Equal(t, "default", coll)
}

func TestResolveUnknownCollection(t *testing.T) {
	path := writeRegistry(t, "collections:\n  work: /vaults/work\n")
	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	_, _, err = reg.Resolve("missing", "/tmp")
	require.Error(t, err)
	assert.True(t, oberrors.IsCode(err, oberrors.CodeUnknownCollection))
}

func TestNamesSorted(t *testing.T) {
	path := writeRegistry(t, "collections:\n  zeta: /z\n  alpha: /a\n  mid: /m\n")
	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", RegistryFileName)
	require.NoError(t, SaveRegistry(path, map[string]string{"work": "/vaults/work"}))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "/vaults/work", reg.Root("work"))
}
