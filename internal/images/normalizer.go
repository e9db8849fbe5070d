// Package images normalizes uploaded pictures for storage: every photo the
// system persists is an opaque, width-capped JPEG regardless of what the
// client uploaded.
package images

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"petadopt/internal/apperr"
)

const (
	// MaxWidth is the widest stored image; wider uploads are downscaled
	// preserving aspect ratio. Height is never capped on its own.
	MaxWidth = 1200
	// JPEGQuality is the encoder quality for stored photos.
	JPEGQuality = 85
)

// Normalize decodes raw and re-encodes it as an opaque RGB JPEG. Transparent
// and palette images are flattened onto a white background first. Input that
// cannot be decoded fails with a decode error; callers must abort the whole
// save in that case.
func Normalize(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Decode("cannot decode image").Wrap(err)
	}

	img = flatten(img)

	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, apperr.Decode("cannot encode image").Wrap(err)
	}
	return buf.Bytes(), nil
}

// flatten composites img onto an opaque white canvas so alpha and palette
// modes survive JPEG encoding without artifacts.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// JPEGName replaces the extension of name with .jpg, matching what Normalize
// produces.
func JPEGName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
