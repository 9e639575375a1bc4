// Package imageio loads base images from disk or over HTTP.
package imageio

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupported = errors.New("unsupported image")

func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return img, format, nil
}

func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Fetcher downloads images with retries.
type Fetcher struct {
	client  *retryablehttp.Client
	maxSize int64
}

func NewFetcher(timeout time.Duration, retries int, log *logrus.Entry) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.HTTPClient.Timeout = timeout
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	if log != nil {
		client.Logger = log
	}
	return &Fetcher{client: client, maxSize: 64 << 20}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: status %s", url, resp.Status)
	}

	img, _, err := Decode(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return img, nil
}

func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open loads src from an http(s) URL or a local path. A nil fetcher uses
// NewFetcher(10s, 3 retries).
func Open(ctx context.Context, src string, fetcher *Fetcher) (image.Image, error) {
	if !IsURL(src) {
		return DecodeFile(src)
	}
	if fetcher == nil {
		fetcher = NewFetcher(10*time.Second, 3, nil)
	}
	return fetcher.Fetch(ctx, src)
}

// Cover scales img up, keeping its aspect ratio, until it covers w×h.
// Images that already cover the area are returned unchanged.
func Cover(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() >= w && b.Dy() >= h {
		return img
	}
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}

	scale := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	dw := max(w, int(math.Ceil(float64(b.Dx())*scale)))
	dh := max(h, int(math.Ceil(float64(b.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
