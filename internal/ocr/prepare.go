package ocr

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// maxVisionDim caps either image dimension before a vision call; larger
// uploads are scaled down to keep request payloads reasonable.
const maxVisionDim = 2200

// PreparePNG decodes an uploaded image, flattens any transparency onto a
// white background, downscales oversized images, and re-encodes as PNG.
// Model backends expect an opaque PNG payload.
func PreparePNG(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, src, image.Pt(0, 0), 1.0)

	if bounds.Dx() > maxVisionDim || bounds.Dy() > maxVisionDim {
		flat = imaging.Fit(flat, maxVisionDim, maxVisionDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
