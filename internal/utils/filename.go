package utils

import (
	"path"
	"strings"
	"unicode"
)

const maxFileNameLength = 128

// SanitizeFileName reduces a client supplied file name to a safe blob key
// segment: the base name only, with anything other than letters, digits,
// '.', '-' and '_' replaced by '_'. An empty result becomes "file".
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	if len(clean) > maxFileNameLength {
		clean = clean[len(clean)-maxFileNameLength:]
	}
	if clean == "" {
		return "file"
	}
	return clean
}
