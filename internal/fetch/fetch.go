// Package fetch downloads and unpacks the workshop datasets (yearly
// land-cover rasters and the parish polygon layer).
package fetch

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/geoandes/landcover-cli/internal/config"
)

// Fetcher downloads dataset archives into a local data directory. Requests
// are rate-limited to stay polite with the university mirrors the workshop
// data is hosted on.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Fetcher. A nil client uses http.DefaultClient.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

// FetchAll downloads every configured dataset into dir, unzipping archives
// into a subdirectory named after the dataset. Existing downloads are
// re-fetched; the sources are small enough that caching is not worth the
// staleness risk.
func (f *Fetcher) FetchAll(ctx context.Context, dir string, datasets []config.Dataset) error {
	log := zap.L().With(zap.String("component", "fetch"))

	for _, ds := range datasets {
		if ds.Name == "" || ds.URL == "" {
			return eris.Errorf("fetch: dataset needs both name and url, got %q / %q", ds.Name, ds.URL)
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "fetch: rate limit wait")
		}

		dest := filepath.Join(dir, filepath.Base(ds.URL))
		log.Info("downloading dataset", zap.String("name", ds.Name), zap.String("url", ds.URL))

		if err := f.download(ctx, ds.URL, dest); err != nil {
			return eris.Wrapf(err, "fetch: download %s", ds.Name)
		}

		if strings.HasSuffix(strings.ToLower(dest), ".zip") {
			extractDir := filepath.Join(dir, ds.Name)
			if err := os.MkdirAll(extractDir, 0o755); err != nil {
				return eris.Wrapf(err, "fetch: create %s", extractDir)
			}
			if err := extractZIP(dest, extractDir); err != nil {
				return eris.Wrapf(err, "fetch: extract %s", ds.Name)
			}
			log.Info("dataset extracted", zap.String("name", ds.Name), zap.String("dir", extractDir))
		}
	}
	return nil
}

// download fetches a URL to a local file.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return eris.Wrap(err, "create dir")
	}
	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, resp.Body); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

// extractZIP extracts a ZIP archive to the destination directory, flattening
// any internal directory structure.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, zf := range r.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(zf.Name))

		rc, err := zf.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", zf.Name)
		}

		out, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", zf.Name)
		}
		_ = out.Close()
		_ = rc.Close()
	}
	return nil
}
