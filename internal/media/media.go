// Package media handles the encoded image payloads sent by the client.
package media

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported for malformed or unsupported image payloads. These are
// input-validation failures: the caller fixes the input, nothing is retried.
var (
	ErrNotDataURL           = errors.New("not a base64 data URL")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// EncodedImage is a base64 image payload tagged with its media type,
// ready to be embedded in a completion request.
type EncodedImage struct {
	MediaType string
	Data      string
}

// DataURL re-serializes the image into data:<mediaType>;base64,<payload> form.
func (img EncodedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Data)
}

// supportedMediaTypes is the closed set of image types the completion
// providers accept. Anything else is rejected before any network call.
var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ParseDataURL parses a data:<mediaType>;base64,<payload> string and returns
// the extracted payload. The payload is the exact substring following the
// comma; it is not base64-decoded here.
func ParseDataURL(url string) (EncodedImage, error) {
	if !strings.HasPrefix(url, "data:") {
		return EncodedImage{}, ErrNotDataURL
	}

	content := url[len("data:"):]

	commaIdx := strings.Index(content, ",")
	if commaIdx == -1 {
		return EncodedImage{}, fmt.Errorf("%w: missing comma separator", ErrNotDataURL)
	}

	metadata := content[:commaIdx]
	data := content[commaIdx+1:]

	parts := strings.Split(metadata, ";")
	mediaType := normalizeMediaType(parts[0])

	isBase64 := false
	for _, part := range parts[1:] {
		if part == "base64" {
			isBase64 = true
			break
		}
	}
	if !isBase64 {
		return EncodedImage{}, fmt.Errorf("%w: payload must be base64 encoded", ErrNotDataURL)
	}

	if !supportedMediaTypes[mediaType] {
		return EncodedImage{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, parts[0])
	}

	return EncodedImage{MediaType: mediaType, Data: data}, nil
}

// normalizeMediaType lowercases the type and maps image/jpg to image/jpeg.
func normalizeMediaType(mediaType string) string {
	mt := strings.TrimSpace(strings.ToLower(mediaType))
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}
