package backend

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// DefaultPhotoMIME is assumed for bare base64 photos.
const DefaultPhotoMIME = "image/jpeg"

// StripDataURL returns the base64 payload of a data URL. Values without the
// "data:" prefix are returned unchanged.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, payload, ok := strings.Cut(s, ","); ok && payload != "" {
		return payload
	}
	return s
}

// PreviewDataURL turns a stored photo into something an <img> can show.
// Empty input yields "", data URLs are kept and bare base64 is prefixed
// with mime (DefaultPhotoMIME when empty).
func PreviewDataURL(photo, mime string) string {
	if photo == "" {
		return ""
	}
	if strings.HasPrefix(photo, "data:") {
		return photo
	}
	if mime == "" {
		mime = DefaultPhotoMIME
	}
	return "data:" + mime + ";base64," + photo
}

// EncodePhoto encodes raw image bytes as the bare base64 the services
// store, detecting the content type for callers that need a preview.
func EncodePhoto(data []byte) (encoded, mime string) {
	if len(data) == 0 {
		return "", ""
	}
	mime = http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return base64.StdEncoding.EncodeToString(data), mime
}

// DecodeDataURL parses a data URL (or bare base64) back into bytes and its
// content type.
func DecodeDataURL(s string) ([]byte, string, error) {
	mime := DefaultPhotoMIME
	if strings.HasPrefix(s, "data:") {
		header, _, _ := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		if m, _, _ := strings.Cut(header, ";"); m != "" {
			mime = m
		}
	}
	data, err := base64.StdEncoding.DecodeString(StripDataURL(s))
	if err != nil {
		return nil, "", fmt.Errorf("decoding photo: %w", err)
	}
	return data, mime, nil
}
