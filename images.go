package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxBannerWidth = 1440
	jpegQuality    = 80
	maxBannerSize  = 10 << 20 // 10MB
	bannersSubdir  = "banners"
)

// processImage decodes an image from src, downscales it to maxBannerWidth
// when wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if w, h := bounds.Dx(), bounds.Dy(); w > maxBannerWidth {
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, h*maxBannerWidth/w))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *App) downloader() *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	return &http.Client{Timeout: a.Config.RequestTimeout}
}

// localizeBanner downloads a post banner into the build's public directory
// and returns its site-relative URL.
func (a *App) localizeBanner(ctx context.Context, uid, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("banner %s: unsupported url %q", uid, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	res, err := a.downloader().Do(req)
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("banner %s: unexpected status %d", uid, res.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBannerSize+1))
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	if len(raw) > maxBannerSize {
		return "", fmt.Errorf("banner %s: larger than %d bytes", uid, maxBannerSize)
	}

	data, err := processImage(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	name := uid + ".jpg"
	if err := writeFile(filepath.Join(a.Config.OutputDir, "public", bannersSubdir, name), data); err != nil {
		return "", fmt.Errorf("banner %s: %w", uid, err)
	}
	return "/public/" + bannersSubdir + "/" + url.PathEscape(name), nil
}
