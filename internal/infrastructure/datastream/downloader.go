// Package datastream fetches and parses packaged benchmark content.
package datastream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/domain/models"
	domain "github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

// HTTPDownloader fetches datastream files from the configured content mirror.
type HTTPDownloader struct {
	client  *http.Client
	baseURL string
	destDir string
	logger  logger.Logger
}

// NewHTTPDownloader creates a downloader against the configured mirror.
func NewHTTPDownloader(cfg *config.DatastreamConfig, log logger.Logger) domain.DatastreamDownloader {
	destDir := cfg.DownloadDir
	if destDir == "" {
		destDir = os.TempDir()
	}
	timeout := time.Duration(cfg.DownloadTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPDownloader{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		destDir: destDir,
		logger:  log.WithComponent("HTTPDownloader"),
	}
}

// Download fetches the baseline's datastream file and returns the local path.
func (d *HTTPDownloader) Download(ctx context.Context, baseline models.SupportedBaseline) (string, error) {
	fileURL, err := url.JoinPath(d.baseURL, baseline.Package+".xml")
	if err != nil {
		return "", fmt.Errorf("build download url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", fileURL, resp.StatusCode)
	}

	dest := filepath.Join(d.destDir, baseline.Package+".xml")
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}

	d.logger.Info(ctx, "Datastream downloaded",
		logger.Fields{
			"package":     baseline.Package,
			"bytes":       written,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	return dest, nil
}
