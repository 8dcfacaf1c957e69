package output

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ErrUnsupportedFormat is returned for file extensions with no encoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// JPEGQuality is used whenever a JPEG is written
const JPEGQuality = 95

// FormatFromFilename picks an encoder from the file extension
func FormatFromFilename(filename string) (imaging.Format, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return format, nil
}

// ContentType returns the MIME type for format
func ContentType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	return imaging.Encode(w, img, format, imaging.JPEGQuality(JPEGQuality))
}

// Save writes fb to path. The extension selects the format; ".ppm" writes
// plain-text P3, anything else goes through the image encoders.
func Save(path string, fb renderer.Framebuffer) error {
	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := WritePPM(f, fb); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return f.Close()
	}

	return SaveImage(path, renderer.ToImage(fb))
}

// SaveImage writes img to path in the format named by its extension
func SaveImage(path string, img image.Image) error {
	if _, err := FormatFromFilename(path); err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Thumbnail scales img to width pixels wide, keeping the aspect ratio
func Thumbnail(img image.Image, width uint) image.Image {
	return resize.Resize(width, 0, img, resize.Lanczos3)
}

// ThumbnailPath derives "name_thumb.ext" from "name.ext"
func ThumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_thumb" + ext
}
