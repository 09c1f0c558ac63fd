package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
	return path
}

func TestExtractZIPExt_NestedPath(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.dbf": "beta",
	})
	dest := t.TempDir()

	paths, err := ExtractZIPExt(zipPath, dest, ".dbf")
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	data, err := os.ReadFile(filepath.Join(dest, "sub", "b.dbf"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
	assert.NoFileExists(t, filepath.Join(dest, "a.txt"))
}

func TestExtractZIPExt(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"tl_2023_us_county.shp":     "shp",
		"tl_2023_us_county.SHX":     "shx",
		"tl_2023_us_county.dbf":     "dbf",
		"tl_2023_us_county.shp.xml": "meta",
		"tl_2023_us_county.prj":     "prj",
	})

	paths, err := ExtractZIPExt(zipPath, t.TempDir(), ".shp", ".shx", ".dbf")
	require.NoError(t, err)

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"tl_2023_us_county.SHX", "tl_2023_us_county.dbf", "tl_2023_us_county.shp"}, names)
}

func TestExtractZIPExt_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))

	tests := []struct {
		name    string
		zipPath string
		wantErr string
	}{
		{name: "zip slip", zipPath: createTestZIP(t, map[string]string{"../evil.shp": "x"}), wantErr: "illegal path"},
		{name: "not an archive", zipPath: bad, wantErr: "zip: open archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractZIPExt(tt.zipPath, t.TempDir(), ".shp")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
