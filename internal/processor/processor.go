package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ImageProcessor decodes one image, applies transforms and re-encodes it
// with the same codec it came in with.
type ImageProcessor struct {
	img      image.Image
	mimeType string
}

// Load decodes the stream according to its declared MIME type. An
// unsupported type or corrupt payload is a decode error; callers treat it as
// permanent.
func (p *ImageProcessor) Load(r io.Reader, mimeType string) error {
	var (
		img image.Image
		err error
	)
	switch mimeType {
	case "image/jpeg":
		img, err = jpeg.Decode(r)
	case "image/png":
		img, err = png.Decode(r)
	case "image/webp":
		img, err = webp.Decode(r)
	default:
		return fmt.Errorf("unsupported image type: %s", mimeType)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", mimeType, err)
	}

	p.img = img
	p.mimeType = mimeType
	return nil
}

// Fit scales the image down to fit a size x size bounding box, preserving
// aspect ratio. Images already inside the box are left alone.
func (p *ImageProcessor) Fit(size int) {
	b := p.img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return
	}
	p.img = imaging.Fit(p.img, size, size, imaging.Lanczos)
}

// Encode re-encodes with the codec the image was loaded with.
func (p *ImageProcessor) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	switch p.mimeType {
	case "image/jpeg":
		err = jpeg.Encode(buf, p.img, &jpeg.Options{Quality: 90})
	case "image/png":
		err = png.Encode(buf, p.img)
	case "image/webp":
		err = webp.Encode(buf, p.img, &webp.Options{Quality: 90})
	default:
		err = fmt.Errorf("unsupported image type: %s", p.mimeType)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.mimeType, err)
	}
	return buf.Bytes(), nil
}

// Bounds returns the current width and height.
func (p *ImageProcessor) Bounds() (int, int) {
	return p.img.Bounds().Dx(), p.img.Bounds().Dy()
}
