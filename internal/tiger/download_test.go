package tiger

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/fetcher"
)

func testOpener() *fetcher.Opener {
	return fetcher.NewOpener(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		BaseBackoff: time.Millisecond,
	}), nil)
}

// createTestZIP writes a ZIP with the given members and returns its bytes.
func createTestZIP(t *testing.T, files map[string]string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

var archiveMembers = map[string]string{
	"tl_2023_us_county.shp":     "shp",
	"tl_2023_us_county.shx":     "shx",
	"tl_2023_us_county.dbf":     "dbf",
	"tl_2023_us_county.shp.xml": "metadata",
}

func TestCountyURL(t *testing.T) {
	assert.Equal(t,
		"https://www2.census.gov/geo/tiger/TIGER2023/COUNTY/tl_2023_us_county.zip",
		CountyURL(2023))
}

func TestDownload_RemoteCached(t *testing.T) {
	body := createTestZIP(t, archiveMembers)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	destDir := t.TempDir()
	ref := srv.URL + "/tl_2023_us_county.zip"

	shpPath, err := Download(context.Background(), testOpener(), ref, destDir)
	require.NoError(t, err)
	assert.Equal(t, "tl_2023_us_county.shp", filepath.Base(shpPath))
	assert.FileExists(t, filepath.Join(filepath.Dir(shpPath), "tl_2023_us_county.dbf"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(shpPath), "tl_2023_us_county.shp.xml"))

	_, err = Download(context.Background(), testOpener(), ref, destDir)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownload_LocalArchive(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "tl_2023_us_county.zip")
	require.NoError(t, os.WriteFile(zipPath, createTestZIP(t, archiveMembers), 0o644))

	shpPath, err := Download(context.Background(), testOpener(), zipPath, t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, shpPath)
}

func TestDownload_NoShapefile(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(zipPath, createTestZIP(t, map[string]string{"readme.txt": "x"}), 0o644))

	_, err := Download(context.Background(), testOpener(), zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .shp file")
}

func TestDownload_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := Download(context.Background(), testOpener(), srv.URL+"/bad.zip", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiger: download archive")

	_, err = Download(context.Background(), testOpener(), srv.URL+"/counties.json", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a zip archive")
}
