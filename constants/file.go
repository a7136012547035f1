package constants

import "strings"

// Format identifies the coarse document family an upload belongs to.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// MaxUploadBytes caps uploads at 10 MiB; the admission layer rejects anything bigger.
const MaxUploadBytes = 10 << 20

// AllowedExtensions holds the allowed file extensions for invoice uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// AllowedMIMETypes holds the allowed declared content types for invoice uploads.
var AllowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (possibly dotted) extension to its Format.
// Returns "" for anything outside the allowlist.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg":
		return IMAGE
	default:
		return ""
	}
}

// IsAllowedExtension reports whether the (possibly dotted) extension is accepted.
func IsAllowedExtension(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsAllowedMIMEType reports whether the declared content type is accepted.
// Parameters after a semicolon (charset etc.) are ignored.
func IsAllowedMIMEType(mt string) bool {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	_, ok := AllowedMIMETypes[strings.TrimSpace(strings.ToLower(mt))]
	return ok
}
