package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Options bounds the optimized image
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64 // 0..1
}

// DefaultOptions match the storefront's display size
func DefaultOptions() Options {
	return Options{MaxWidth: 1200, MaxHeight: 1200, Quality: 0.8}
}

// FitSize returns the dimensions of a width x height image scaled down to fit
// the bounds. Landscape images are clamped by width, everything else by height.
func FitSize(width, height, maxWidth, maxHeight int) (int, int) {
	w, h := float64(width), float64(height)
	if width > height {
		if width > maxWidth {
			h = h * float64(maxWidth) / w
			w = float64(maxWidth)
		}
	} else if height > maxHeight {
		w = w * float64(maxHeight) / h
		h = float64(maxHeight)
	}
	return max(1, int(math.Round(w))), max(1, int(math.Round(h)))
}

// Optimize decodes f, downsizes it to fit opts and re-encodes it as JPEG.
// The returned file keeps the original name.
func Optimize(f File, opts Options) (File, error) {
	data, err := f.ReadAll()
	if err != nil {
		return File{}, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("failed to decode image %q: %w", f.Name, err)
	}

	bounds := src.Bounds()
	width, height := FitSize(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	// JPEG has no alpha channel, so transparent pixels are flattened onto white
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	quality := int(math.Round(opts.Quality * 100))
	quality = min(max(quality, 1), 100)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return File{}, fmt.Errorf("failed to encode image %q: %w", f.Name, err)
	}

	slog.Debug("Image optimized",
		"name", f.Name,
		"format", format,
		"before_kb", fmt.Sprintf("%.2f", float64(len(data))/1024),
		"after_kb", fmt.Sprintf("%.2f", float64(buf.Len())/1024),
		"width", width,
		"height", height)

	return NewFile(f.Name, "image/jpeg", buf.Bytes()), nil
}
