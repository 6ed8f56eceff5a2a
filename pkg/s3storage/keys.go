package s3storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var audioFormats = map[string]string{
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"opus": "audio/opus",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"webm": "audio/webm",
}

var imageFormats = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// ContentType returns the MIME type for a file extension of the given kind.
// ok is false when the format is not accepted for that kind.
func ContentType(kind Kind, format string) (string, bool) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))

	formats := audioFormats
	if kind == KindPhoto {
		formats = imageFormats
	}

	ct, ok := formats[format]
	return ct, ok
}

// NewKey builds an object key.
// Format: <kind>/YYYY/MM/DD/<uuid>.<format>
func NewKey(kind Kind, format string, now time.Time) string {
	return fmt.Sprintf(
		"%s/%d/%02d/%02d/%s.%s",
		kind,
		now.Year(),
		now.Month(),
		now.Day(),
		uuid.NewString(),
		strings.ToLower(strings.TrimPrefix(format, ".")),
	)
}
