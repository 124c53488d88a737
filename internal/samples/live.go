package samples

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/angle-api/internal/model"
	"github.com/google/uuid"
)

// LiveName is the display name every live capture is published under.
const LiveName = "liveCapture"

const maxFrameSize = 20 << 20

// LiveSource pulls base64-encoded frames from the capture service and keeps
// the most recent one on disk so the static host can serve it.
type LiveSource struct {
	URL        string
	Dest       string
	HTTPClient *http.Client

	// One-slot semaphore held across fetch and write so the published file
	// always matches the frame the caller classifies.
	slot chan struct{}
}

func NewLiveSource(url, dest string, client *http.Client) *LiveSource {
	return &LiveSource{
		URL:        url,
		Dest:       dest,
		HTTPClient: client,
		slot:       make(chan struct{}, 1),
	}
}

func (l *LiveSource) Fetch(ctx context.Context) (Frame, error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return Frame{}, fmt.Errorf("%w: gave up waiting for capture: %v", ErrLiveSource, ctx.Err())
	}
	defer func() { <-l.slot }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrLiveSource, err)
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrLiveSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Frame{}, fmt.Errorf("%w: capture service returned status %d", ErrLiveSource, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameSize))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: failed to read frame: %v", ErrLiveSource, err)
	}

	data, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(body)))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: frame is not valid base64: %v", ErrLiveSource, err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: capture service returned an empty frame", ErrLiveSource)
	}
	if err := model.CheckImageSize(data); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrLiveSource, err)
	}

	if err := l.publish(data); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrLiveSource, err)
	}

	slog.Info("Live frame captured", "path", l.Dest, "bytes", len(data))
	return Frame{Name: LiveName, Data: data}, nil
}

func (l *LiveSource) publish(data []byte) error {
	dir := filepath.Dir(l.Dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, "."+LiveName+"-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmpPath, l.Dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}
