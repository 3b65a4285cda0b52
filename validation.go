package copilot

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyPrompt        = errors.New("prompt cannot be empty")
	ErrEmptyImageData     = errors.New("image data cannot be empty")
	ErrInvalidImage       = errors.New("image is not valid base64")
	ErrImageTooLarge      = errors.New("image data exceeds maximum size")
	ErrTooManyImages      = errors.New("too many input images")
	ErrImagesNotSupported = errors.New("model does not accept images")
)

// Image size limits
const (
	// MaxImageSize is the maximum allowed encoded image size in bytes (64MB)
	MaxImageSize = 64 * 1024 * 1024

	// MaxInputImages is the maximum number of images per request
	MaxInputImages = 1
)

// ValidatePrompt validates a text prompt.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateImage validates one base64-encoded image payload.
func ValidateImage(img string) error {
	if img == "" {
		return ErrEmptyImageData
	}

	if len(img) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img), MaxImageSize)
	}

	if _, err := base64.StdEncoding.DecodeString(img); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return nil
}

// ValidateImages validates the image list of a request against a model.
// An empty list is always valid.
func ValidateImages(images []string, info *ModelInfo) error {
	if len(images) == 0 {
		return nil
	}

	limit := MaxInputImages
	if info != nil {
		if !info.Capabilities.SupportsImages {
			return fmt.Errorf("%w: %s", ErrImagesNotSupported, info.Name)
		}
		if info.Capabilities.MaxInputImages > 0 {
			limit = info.Capabilities.MaxInputImages
		}
	}

	if len(images) > limit {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyImages, len(images), limit)
	}

	for i, img := range images {
		if err := ValidateImage(img); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}

	return nil
}
