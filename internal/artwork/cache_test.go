package artwork

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testImage(w, h int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func TestCachePutGet(t *testing.T) {
	c := NewCache()

	if got := c.Get("ref-1"); got != nil {
		t.Errorf("Get on empty cache = %v, want nil", got)
	}

	img := testImage(10, 10)
	c.Put("ref-1", img)
	if got := c.Get("ref-1"); got != img {
		t.Error("Get should return the cached image")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Put("ref-1", testImage(1, 1))
	c.Put("ref-2", testImage(1, 1))

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if c.Get("ref-1") != nil {
		t.Error("Get after Clear should return nil")
	}
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetcherCachesDownloads(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t, testImage(640, 640)))
	}))
	defer server.Close()

	cache := NewCache()
	f := NewFetcher(cache, 2*time.Second)
	ctx := context.Background()

	img := f.Fetch(ctx, server.URL)
	if img == nil {
		t.Fatal("Fetch returned nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() > thumbSize || bounds.Dy() > thumbSize {
		t.Errorf("artwork not resized: %v", bounds)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}

	f.Fetch(ctx, server.URL)
	if requests != 1 {
		t.Errorf("requests = %d, want the second fetch served from cache", requests)
	}
}

func TestFetcherFailureReturnsPlaceholderUncached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	cache := NewCache()
	f := NewFetcher(cache, 2*time.Second)

	img := f.Fetch(context.Background(), server.URL)
	if img == nil {
		t.Fatal("expected a placeholder, got nil")
	}
	if cache.Len() != 0 {
		t.Error("failures must not be cached, so a retry can succeed")
	}
}

func TestFetcherEmptyRef(t *testing.T) {
	f := NewFetcher(NewCache(), time.Second)
	if img := f.Fetch(context.Background(), ""); img == nil {
		t.Error("empty ref should yield a placeholder")
	}
}
