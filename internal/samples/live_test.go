package samples

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func encodeFrame(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.RGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLiveSource_Fetch(t *testing.T) {
	frame := encodeFrame(t, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(base64.StdEncoding.EncodeToString(frame) + "\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "images", "liveCapture.jpg")
	live := NewLiveSource(srv.URL, dest, &http.Client{Timeout: 5 * time.Second})

	got, err := live.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Name != LiveName {
		t.Errorf("name = %q, want %q", got.Name, LiveName)
	}
	if string(got.Data) != string(frame) {
		t.Errorf("data = %q", got.Data)
	}

	onDisk, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read published frame: %v", err)
	}
	if string(onDisk) != string(frame) {
		t.Errorf("published frame = %q", onDisk)
	}
}

func TestLiveSource_Failures(t *testing.T) {
	badBase64 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%%% not base64 %%%"))
	}))
	defer badBase64.Close()

	serverError := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera offline", http.StatusServiceUnavailable)
	}))
	defer serverError.Close()

	notAnImage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(base64.StdEncoding.EncodeToString([]byte("plain text, not a jpeg"))))
	}))
	defer notAnImage.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer empty.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"bad base64", badBase64.URL},
		{"non-2xx", serverError.URL},
		{"empty body", empty.URL},
		{"decodes to non-image", notAnImage.URL},
		{"unreachable", downURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "liveCapture.jpg")
			live := NewLiveSource(tt.url, dest, &http.Client{Timeout: 2 * time.Second})

			_, err := live.Fetch(context.Background())
			if !errors.Is(err, ErrLiveSource) {
				t.Fatalf("expected ErrLiveSource, got %v", err)
			}
			if _, statErr := os.Stat(dest); statErr == nil {
				t.Errorf("no frame should be published on failure")
			}
		})
	}
}

func TestLiveSource_ConcurrentFetchesLeaveWholeFrame(t *testing.T) {
	frames := [][]byte{encodeFrame(t, 8), encodeFrame(t, 32)}
	var mu sync.Mutex
	next := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		f := frames[next%len(frames)]
		next++
		mu.Unlock()
		w.Write([]byte(base64.StdEncoding.EncodeToString(f)))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "liveCapture.jpg")
	live := NewLiveSource(srv.URL, dest, &http.Client{Timeout: 5 * time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := live.Fetch(context.Background()); err != nil {
				t.Errorf("Fetch: %v", err)
			}
		}()
	}
	wg.Wait()

	onDisk, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(onDisk) != string(frames[0]) && string(onDisk) != string(frames[1]) {
		t.Errorf("published frame is torn: %q", onDisk)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestLiveSource_WaitRespectsContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	live := NewLiveSource(srv.URL, filepath.Join(t.TempDir(), "liveCapture.jpg"), &http.Client{Timeout: 5 * time.Second})

	// Another capture holds the slot.
	live.slot <- struct{}{}
	defer func() { <-live.slot }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := live.Fetch(ctx)
	if !errors.Is(err, ErrLiveSource) {
		t.Fatalf("expected ErrLiveSource, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("queued fetch ignored its context, waited %v", elapsed)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("capture service called %d times while the slot was held", n)
	}
}
