package artwork

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log"
	"net/http"
	"time"

	"github.com/nfnt/resize"
)

// thumbSize is the edge length artwork is normalized to before caching.
const thumbSize = 300

// Fetcher downloads album art by reference and fills the cache. Failures
// degrade to a placeholder; they never propagate.
type Fetcher struct {
	cache      *Cache
	httpClient *http.Client
}

// NewFetcher creates a fetcher backed by the given cache.
func NewFetcher(cache *Cache, timeout time.Duration) *Fetcher {
	return &Fetcher{
		cache:      cache,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the artwork for ref, from cache when possible. On any
// network or decode failure it logs and returns a placeholder without
// caching it, so a later retry can still succeed.
func (f *Fetcher) Fetch(ctx context.Context, ref string) image.Image {
	if ref == "" {
		return Placeholder()
	}
	if img := f.cache.Get(ref); img != nil {
		return img
	}

	img, err := f.download(ctx, ref)
	if err != nil {
		log.Printf("artwork: fetch %s: %v", ref, err)
		return Placeholder()
	}

	img = resize.Thumbnail(thumbSize, thumbSize, img, resize.Lanczos3)
	f.cache.Put(ref, img)
	return img
}

// Preload fetches artwork into the cache in the background.
func (f *Fetcher) Preload(ctx context.Context, ref string) {
	if ref == "" || f.cache.Get(ref) != nil {
		return
	}
	go f.Fetch(ctx, ref)
}

func (f *Fetcher) download(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Placeholder returns a flat dark square shown when artwork is missing.
func Placeholder() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, thumbSize, thumbSize))
	fill := color.NRGBA{R: 0x28, G: 0x28, B: 0x28, A: 0xff}
	for y := 0; y < thumbSize; y++ {
		for x := 0; x < thumbSize; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	return img
}
