// Package tiger turns Census TIGER/Line county shapefiles into the county
// feature collections the choropleth pipeline enriches.
package tiger

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/fetcher"
)

// shapefileParts are the archive members go-shp needs to read geometry and
// attributes.
var shapefileParts = []string{".shp", ".shx", ".dbf"}

// CountyURL returns the nationwide county archive for a TIGER/Line vintage.
func CountyURL(year int) string {
	return fmt.Sprintf("https://www2.census.gov/geo/tiger/TIGER%d/COUNTY/tl_%d_us_county.zip", year, year)
}

// Download materializes a county archive in destDir and extracts its
// shapefile, returning the .shp path. ref may be a URL or a local .zip; an
// archive already present in destDir is reused.
func Download(ctx context.Context, opener *fetcher.Opener, ref, destDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "tiger.download"),
		zap.String("ref", ref),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "tiger: create dest dir")
	}

	zipName := path.Base(ref)
	if !strings.HasSuffix(strings.ToLower(zipName), ".zip") {
		return "", eris.Errorf("tiger: %s is not a zip archive", ref)
	}

	zipPath := ref
	if fetcher.IsRemote(ref) {
		zipPath = filepath.Join(destDir, zipName)
		if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
			log.Debug("tiger: archive cached", zap.String("path", zipPath))
		} else {
			log.Info("tiger: downloading county archive")
			if _, err := opener.OpenToFile(ctx, ref, zipPath); err != nil {
				return "", eris.Wrap(err, "tiger: download archive")
			}
		}
	}

	extractDir := filepath.Join(destDir, strings.TrimSuffix(zipName, filepath.Ext(zipName)))
	files, err := fetcher.ExtractZIPExt(zipPath, extractDir, shapefileParts...)
	if err != nil {
		return "", eris.Wrap(err, "tiger: extract archive")
	}

	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".shp") {
			log.Debug("tiger: shapefile ready", zap.String("path", f))
			return f, nil
		}
	}
	return "", eris.Errorf("tiger: no .shp file in %s", zipPath)
}
