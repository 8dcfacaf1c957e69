package loaders

import (
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/df07/go-pathtracer/pkg/material"
)

// LoadImageTexture loads a PNG, JPEG, GIF, BMP or TIFF image as a texture.
// EXIF orientation is applied so the texture is upright.
func LoadImageTexture(filename string) (*material.ImageTexture, error) {
	img, err := imaging.Open(filename, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("image %s is empty", filename)
	}

	return material.NewImageTextureFromImage(img), nil
}
