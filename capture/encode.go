package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// ErrNilImage is returned when there is nothing to encode.
var ErrNilImage = errors.New("image is nil")

// EncodePNG encodes img losslessly as PNG into memory.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64PNG encodes img as PNG, then as standard padded base64 text.
func EncodeBase64PNG(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// CaptureBase64PNG captures one image with c and returns it base64-encoded.
func CaptureBase64PNG(ctx context.Context, c Capturer) (string, error) {
	img, err := c.Capture(ctx)
	if err != nil {
		return "", err
	}
	return EncodeBase64PNG(img)
}
