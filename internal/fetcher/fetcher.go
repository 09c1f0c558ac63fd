// Package fetcher opens the remote and local inputs countymap reads: county
// GeoJSON, Census and BEA tables, and TIGER/Line archives. It also streams
// CSV and XLSX rows out of them.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Opener resolves a source reference to a reader. References are http(s)
// URLs, ftp URLs, or local file paths.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewOpener returns an Opener backed by the given fetchers.
func NewOpener(httpFetcher, ftpFetcher Fetcher) *Opener {
	return &Opener{HTTP: httpFetcher, FTP: ftpFetcher}
}

// Open returns a reader for ref.
func (o *Opener) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	switch scheme(ref) {
	case "http", "https":
		if o.HTTP == nil {
			return nil, eris.Errorf("fetcher: no http fetcher for %s", ref)
		}
		return o.HTTP.Download(ctx, ref)
	case "ftp":
		if o.FTP == nil {
			return nil, eris.Errorf("fetcher: no ftp fetcher for %s", ref)
		}
		return o.FTP.Download(ctx, ref)
	case "file":
		u, err := url.Parse(ref)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse file url")
		}
		return openFile(u.Path)
	default:
		return openFile(ref)
	}
}

// OpenToFile materializes ref at path. Local files are opened in place and
// their path is returned unchanged.
func (o *Opener) OpenToFile(ctx context.Context, ref, path string) (string, error) {
	switch scheme(ref) {
	case "http", "https":
		if o.HTTP == nil {
			return "", eris.Errorf("fetcher: no http fetcher for %s", ref)
		}
		_, err := o.HTTP.DownloadToFile(ctx, ref, path)
		return path, err
	case "ftp":
		if o.FTP == nil {
			return "", eris.Errorf("fetcher: no ftp fetcher for %s", ref)
		}
		_, err := o.FTP.DownloadToFile(ctx, ref, path)
		return path, err
	case "file":
		u, err := url.Parse(ref)
		if err != nil {
			return "", eris.Wrap(err, "fetcher: parse file url")
		}
		return statLocal(u.Path)
	default:
		return statLocal(ref)
	}
}

// IsRemote reports whether ref needs a network fetch.
func IsRemote(ref string) bool {
	switch scheme(ref) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

func scheme(ref string) string {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(ref[:i])
}

func statLocal(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", eris.Wrapf(err, "fetcher: stat %s", path)
	}
	return path, nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}
