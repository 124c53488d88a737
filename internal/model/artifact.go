package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EnsureArtifact downloads url to dest unless dest already exists. The file is
// written under a temporary name and renamed into place, so a half-finished
// download never looks like a usable artifact.
func EnsureArtifact(ctx context.Context, client *http.Client, url, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: failed to stat %s: %v", ErrFetch, dest, err)
	}

	if url == "" {
		return false, fmt.Errorf("%w: %s is missing and no artifact URL is configured", ErrFetch, dest)
	}

	slog.Info("Downloading model artifact", "url", url, "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to build request: %v", ErrFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: artifact URL returned status %d", ErrFetch, resp.StatusCode)
	}

	if err := writeFileAtomic(dest, resp.Body); err != nil {
		return false, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	return true, nil
}

func writeFileAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(dest)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
