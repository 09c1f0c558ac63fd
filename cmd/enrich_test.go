package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/choropleth"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
)

func TestWriteCollection_File(t *testing.T) {
	fc, err := geo.DecodeBytes([]byte(countiesGeoJSON))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "counties.geojson")
	require.NoError(t, writeCollection(path, fc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := geo.DecodeBytes(data)
	require.NoError(t, err)
	assert.Len(t, got.Features, 3)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.json")
	diags := map[string]choropleth.Diagnostics{
		"population": {Total: 4, MatchedByCode: 2, MatchedByName: 1, Unmatched: 1},
	}
	require.NoError(t, writeDiagnostics(path, "run-1", diags))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		RunID       string                            `json:"runId"`
		Diagnostics map[string]choropleth.Diagnostics `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, diags, got.Diagnostics)
}

func TestFormatDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	formatDiagnostics(&buf, map[string]choropleth.Diagnostics{
		"gdp":        {Total: 3, MatchedByCode: 2, Unmatched: 1},
		"population": {Total: 3, MatchedByCode: 1, MatchedByName: 1, Unmatched: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "DATASET")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("gdp")), bytes.Index(buf.Bytes(), []byte("population")))
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := logObserver{log: zap.New(core)}

	obs.ObserveMatch("gdp", choropleth.Diagnostics{Total: 3, MatchedByCode: 2, Unmatched: 1})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dataset joined", entry.Message)
	assert.Equal(t, "gdp", entry.ContextMap()["dataset"])
	assert.EqualValues(t, 2, entry.ContextMap()["matched_by_code"])
}
